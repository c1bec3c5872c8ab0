package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/trail"
)

const (
	DefaultScale  = 1e9
	DefaultSteps  = 365
	DefaultPreset = "trinary"
)

// Scenario is the on-disk description of a simulation: the initial
// bodies plus the integration and display parameters. Units are SI;
// Scale is metres per display pixel.
type Scenario struct {
	Name          string        `yaml:"name" json:"name" validate:"required"`
	G             float64       `yaml:"g" json:"g" validate:"gt=0"`
	Dt            float64       `yaml:"dt" json:"dt" validate:"gt=0"`
	Steps         int           `yaml:"steps" json:"steps" validate:"gte=0"`
	Interval      time.Duration `yaml:"interval" json:"interval" validate:"gt=0"`
	TrailCapacity int           `yaml:"trail_capacity" json:"trail_capacity" validate:"gt=0"`
	Softening     float64       `yaml:"softening" json:"softening" validate:"gte=0"`
	Workers       int           `yaml:"workers" json:"workers" validate:"gte=0"`
	Scale         float64       `yaml:"scale" json:"scale" validate:"gt=0"`
	Bodies        []BodyConfig  `yaml:"bodies" json:"bodies" validate:"dive"`
}

type BodyConfig struct {
	Name  string      `yaml:"name" json:"name" validate:"required"`
	Mass  float64     `yaml:"mass" json:"mass" validate:"gt=0"`
	Pos   dynamo.Vec2 `yaml:"pos" json:"pos"`
	Vel   dynamo.Vec2 `yaml:"vel" json:"vel"`
	Color string      `yaml:"color,omitempty" json:"color,omitempty" validate:"omitempty,color"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
		_, err := colorful.Hex(fl.Field().String())
		return err == nil
	})
	return v
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Name:          "custom",
		G:             physics.G,
		Dt:            physics.DefaultDt,
		Steps:         DefaultSteps,
		Interval:      sim.DefaultInterval,
		TrailCapacity: trail.DefaultCapacity,
		Scale:         DefaultScale,
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Scenario, error) {
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks struct tags first and then the physical constraints on
// the resulting bodies: finite state, unique names and no two bodies at
// the same position.
func (s *Scenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return formatValidationError(err)
	}
	if math.IsInf(s.Dt, 0) || math.IsInf(s.G, 0) || math.IsInf(s.Softening, 0) || math.IsInf(s.Scale, 0) {
		return fmt.Errorf("parameters must be finite: %w", dynamo.ErrParameterBounds)
	}
	_, err := s.ToBodies()
	return err
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	sentinel := dynamo.ErrParameterBounds
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		if e.Field() == "Mass" {
			sentinel = dynamo.ErrInvalidMass
		}
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), sentinel)
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Scenario.")

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, e.Param(), e.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, e.Param(), e.Value())
	case "color":
		return fmt.Sprintf("%s is not a hex color: %q", field, e.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ToBodies converts the body list to an integrator snapshot. Colors are
// normalized to lower-case #rrggbb; bodies without one get a palette
// color derived from their index.
func (s *Scenario) ToBodies() (dynamo.Bodies, error) {
	bodies := make(dynamo.Bodies, len(s.Bodies))
	for i, bc := range s.Bodies {
		color, err := normalizeColor(bc.Color, i)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", bc.Name, err)
		}
		bodies[i] = dynamo.Body{
			Name:  bc.Name,
			Mass:  bc.Mass,
			Pos:   bc.Pos,
			Vel:   bc.Vel,
			Color: color,
		}
	}
	if err := bodies.Validate(); err != nil {
		return nil, err
	}
	return bodies, nil
}

func normalizeColor(hex string, i int) (string, error) {
	if hex == "" {
		return PaletteColor(i), nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", fmt.Errorf("color %q: %w", hex, dynamo.ErrParameterBounds)
	}
	return c.Hex(), nil
}

// PaletteColor spreads hues by the golden angle so neighbouring indices
// stay distinguishable.
func PaletteColor(i int) string {
	hue := math.Mod(float64(i)*137.508, 360)
	return colorful.Hcl(hue, 0.6, 0.75).Clamped().Hex()
}

func (s *Scenario) SimConfig() sim.Config {
	return sim.Config{
		Dt:          s.Dt,
		Interval:    s.Interval,
		Capacity:    s.TrailCapacity,
		SampleEvery: 1,
	}
}

func (s *Scenario) Gravity() *physics.Gravity {
	g := physics.NewGravity()
	g.G = s.G
	g.Softening = s.Softening
	g.Workers = s.Workers
	return g
}

func (s *Scenario) Clone() *Scenario {
	c := *s
	c.Bodies = append([]BodyConfig(nil), s.Bodies...)
	return &c
}

// FromBodies builds body entries from a snapshot, e.g. to save the state
// reached by a run as a new scenario.
func FromBodies(bodies dynamo.Bodies) []BodyConfig {
	out := make([]BodyConfig, len(bodies))
	for i, b := range bodies {
		out[i] = BodyConfig{Name: b.Name, Mass: b.Mass, Pos: b.Pos, Vel: b.Vel, Color: b.Color}
	}
	return out
}
