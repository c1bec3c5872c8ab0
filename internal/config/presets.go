package config

import (
	"sort"

	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/physics"
)

var Presets = map[string]func() *Scenario{
	"trinary": trinary,
	"binary":  binary,
}

var presetDescriptions = map[string]string{
	"trinary": "three stars and a planet, one day per step",
	"binary":  "1e30 and 1e29 kg on a circular orbit at 1e11 m",
}

func trinary() *Scenario {
	sc := DefaultScenario()
	sc.Name = "trinary"
	sc.Bodies = []BodyConfig{
		{Name: "Star 1", Mass: 1.689e30, Color: "#ffd700"},
		{Name: "Star 2", Mass: 1.5e30, Pos: dynamo.Vec2{Y: 1.5e11}, Vel: dynamo.Vec2{Y: 2e4}, Color: "#ffa500"},
		{Name: "Star 3", Mass: 1.9e30, Pos: dynamo.Vec2{X: -1.1e11}, Vel: dynamo.Vec2{Y: -2e4}, Color: "#ff4500"},
		{Name: "Planet", Mass: 5.972e24, Pos: dynamo.Vec2{X: 1e11}, Vel: dynamo.Vec2{Y: 3e4}, Color: "#1e90ff"},
	}
	return sc
}

func binary() *Scenario {
	sc := DefaultScenario()
	sc.Name = "binary"
	sc.Dt = 3600

	g := physics.NewGravity()
	pair, err := g.CircularOrbit(
		dynamo.Body{Name: "Primary", Mass: 1e30, Color: "#ffd700"},
		dynamo.Body{Name: "Secondary", Mass: 1e29, Color: "#1e90ff"},
		1e11,
	)
	if err != nil {
		panic(err)
	}
	sc.Steps = int(g.OrbitalPeriod(1e30, 1e29, 1e11) / sc.Dt)
	sc.Bodies = FromBodies(pair)
	return sc
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Scenario {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Describe(name string) string { return presetDescriptions[name] }
