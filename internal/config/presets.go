package config

var Presets = map[string]map[string]*Config{
	"falling_rod": {
		"drop": {
			Scenario: "falling_rod", Method: "kokkevis", Solver: "lu", Dt: 0.001, Duration: 3.0,
			InitState: InitStateConfig{Y: 1.0},
		},
		"spinning": {
			Scenario: "falling_rod", Method: "kokkevis", Solver: "lu", Dt: 0.0005, Duration: 3.0,
			InitState: InitStateConfig{Y: 1.5, Theta: 0.0, Omega: 4.0},
		},
		"sliding": {
			Scenario: "falling_rod", Method: "direct", Solver: "lu", Dt: 0.001, Duration: 5.0,
			InitState: InitStateConfig{Y: 0.5, VX: 1.0},
		},
	},
	"four_bar": {
		"crank": {
			Scenario: "four_bar", Method: "direct", Solver: "lu", Dt: 0.001, Duration: 10.0,
			InitState:  InitStateConfig{Omega: 2.0},
			Stabilizer: StabilizerConfig{Enabled: true, Tau: 0.1},
		},
		"settle": {
			Scenario: "four_bar", Method: "rangespace", Solver: "lu", Dt: 0.001, Duration: 10.0,
			Stabilizer: StabilizerConfig{Enabled: true, Tau: 0.05},
		},
	},
	"spherical_pendulum": {
		"cone": {
			Scenario: "spherical_pendulum", Method: "direct", Solver: "lu", Dt: 0.001, Duration: 10.0,
			InitState: InitStateConfig{Theta: 0.5, Omega: 2.0},
		},
		"swing": {
			Scenario: "spherical_pendulum", Method: "nullspace", Solver: "qr", Dt: 0.001, Duration: 10.0,
			InitState: InitStateConfig{Theta: 1.0},
		},
	},
}

func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	return names
}
