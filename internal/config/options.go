package config

// Options is a free-form parameter map attached to steps, readers and other
// configurable components. JSON object values decode into it as-is.
//
// Accessors are forgiving: a missing key or a value of the wrong type returns
// the provided default. Configuration mistakes degrade to defaults rather than
// aborting a file.
type Options map[string]any

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

// String returns a string option or def.
func (o Options) String(key, def string) string {
	if v, ok := o.Any(key).(string); ok {
		return v
	}
	return def
}

// Bool returns a bool option or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o.Any(key).(bool); ok {
		return v
	}
	return def
}

// Int returns an int option or def. JSON numbers decode as float64, so both
// forms are accepted.
func (o Options) Int(key string, def int) int {
	switch v := o.Any(key).(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

// Rune returns the first rune of a string option, or def.
func (o Options) Rune(key string, def rune) rune {
	s := o.String(key, "")
	if s == "" {
		return def
	}
	return []rune(s)[0]
}

// StringSlice returns a []string option. Elements of other types are skipped.
func (o Options) StringSlice(key string) []string {
	raw, ok := o.Any(key).([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// StringMap returns a map[string]string option. Non-string values are skipped.
func (o Options) StringMap(key string) map[string]string {
	raw, ok := o.Any(key).(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// ObjectList returns a list-of-objects option as []Options.
// Used by steps that take repeated structured parameters (e.g. conditional
// mapping pairs).
func (o Options) ObjectList(key string) []Options {
	raw, ok := o.Any(key).([]any)
	if !ok {
		return nil
	}
	out := make([]Options, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Options(m))
		}
	}
	return out
}
