package mcp

// Tool arguments arrive as a decoded JSON object: strings stay strings and
// every number is a float64.

// stringArg reads a string argument. ok is false when the argument is
// missing, not a string, or empty.
func stringArg(args map[string]interface{}, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok && s != ""
}

// intArg reads a numeric argument, truncating to int.
func intArg(args map[string]interface{}, key string) (int, bool) {
	f, ok := args[key].(float64)
	return int(f), ok
}

// clampedIntArg reads an optional numeric argument, falling back to def and
// clamping the result to [min, max].
func clampedIntArg(args map[string]interface{}, key string, def, min, max int) int {
	v, ok := intArg(args, key)
	if !ok {
		v = def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
