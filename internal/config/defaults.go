package config

// defaultCheckpoints is the canyon course, in meters.
func defaultCheckpoints() [][]float64 {
	return [][]float64{
		{-2134.2096, 9.144, -2165.8834},
		{-2354.0212, 50.8, -2165.8834},
		{-2492.2988, 127.0, -2461.5394},
		{-2354.0212, 101.6, -2165.8834},
		{-1996.9226, 42.5196, -2165.8834},
		{-1735.8614, 2.54, -1826.2854},
		{-1996.9226, 2.54, -2127.3262},
		{-2407.7422, 25.4, -2258.8474},
	}
}

// defaultJointCount is the number of joints in the built-in dictionary.
const defaultJointCount = 5

// builtinGesture is a neutral hand shifted by a fixed offset.
type builtinGesture struct {
	name   string
	hand   string
	offset [3]float64
}

var builtinGestures = []builtinGesture{
	{"null_L", "left", [3]float64{0, 0, 0}},
	{"palmUp_L", "left", [3]float64{0, 0.06, 0}},
	{"palmDown_L", "left", [3]float64{0, -0.06, 0}},
	{"thumbLeft_L", "left", [3]float64{-0.06, 0, 0}},
	{"thumbRight_L", "left", [3]float64{0.06, 0, 0}},
	{"tiltLeft_L", "left", [3]float64{0, 0, 0.06}},
	{"tiltRight_L", "left", [3]float64{0, 0, -0.06}},
	{"null_R", "right", [3]float64{0, 0, 0}},
	{"fist_R", "right", [3]float64{0, -0.06, 0}},
	{"peace_R", "right", [3]float64{0, 0.06, 0}},
}

// defaultTemplates builds the built-in dictionary in the shape viper hands
// back from a JSON file, so UnmarshalKey treats both the same.
func defaultTemplates() []any {
	out := make([]any, 0, len(builtinGestures))
	for _, g := range builtinGestures {
		joints := make([]any, 0, defaultJointCount)
		for k := 1; k <= defaultJointCount; k++ {
			joints = append(joints, []any{
				g.offset[0],
				0.02*float64(k) + g.offset[1],
				0.01*float64(k) + g.offset[2],
			})
		}
		out = append(out, map[string]any{
			"name":   g.name,
			"hand":   g.hand,
			"joints": joints,
		})
	}
	return out
}

func defaultLeftBindings() []any {
	return []any{
		map[string]any{"gesture": "null_L"},
		map[string]any{"gesture": "palmUp_L", "pitch": 1.0},
		map[string]any{"gesture": "palmDown_L", "pitch": -1.0},
		map[string]any{"gesture": "thumbLeft_L", "yaw": -1.0},
		map[string]any{"gesture": "thumbRight_L", "yaw": 1.0},
		map[string]any{"gesture": "tiltLeft_L", "roll": -1.0},
		map[string]any{"gesture": "tiltRight_L", "roll": 1.0},
	}
}

func defaultRightBindings() []any {
	return []any{
		map[string]any{"gesture": "null_R"},
		map[string]any{"gesture": "fist_R", "throttle": 1.0},
	}
}
