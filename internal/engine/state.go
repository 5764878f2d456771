// Package engine implements the rule-based transformation engine: a closed
// catalog of pure text-transformation steps and the rule pipeline that folds
// them over one raw cell value.
package engine

// State is the immutable value threaded through a rule's step pipeline: the
// running text plus the named captures produced so far.
//
// Steps never mutate a State; each step returns a new one. Capture insertion
// order is tracked so assignment collection is deterministic.
type State struct {
	Text     string
	order    []string
	captures map[string]string
}

// NewState seeds a pipeline state with the raw cell text and no captures.
func NewState(text string) State {
	return State{Text: text}
}

// NewStateWith seeds a pipeline state with pre-existing captures, applied in
// the given key order. Used by the parser engine to expose earlier rules'
// assignments to later rules within the same row.
func NewStateWith(text string, keys []string, captures map[string]string) State {
	s := NewState(text)
	for _, k := range keys {
		s = s.WithCapture(k, captures[k])
	}
	return s
}

// Capture returns the named capture, if present.
func (s State) Capture(name string) (string, bool) {
	v, ok := s.captures[name]
	return v, ok
}

// CaptureKeys returns capture names in insertion order. The returned slice
// must not be modified.
func (s State) CaptureKeys() []string { return s.order }

// WithText returns a copy of s with the running text replaced.
func (s State) WithText(text string) State {
	s.Text = text
	return s
}

// WithCapture returns a copy of s with one capture set. The captures map is
// cloned so previous State values stay valid.
func (s State) WithCapture(name, value string) State {
	captures := make(map[string]string, len(s.captures)+1)
	for k, v := range s.captures {
		captures[k] = v
	}
	_, existed := captures[name]
	captures[name] = value

	order := s.order
	if !existed {
		order = make([]string, 0, len(s.order)+1)
		order = append(order, s.order...)
		order = append(order, name)
	}

	s.captures = captures
	s.order = order
	return s
}

// source resolves a step's source parameter: "" means the running text,
// anything else names a capture. Assignment captures are reachable both with
// and without the assign: prefix.
func (s State) source(name string) (string, bool) {
	if name == "" {
		return s.Text, true
	}
	if v, ok := s.captures[name]; ok {
		return v, true
	}
	if v, ok := s.captures[AssignPrefix+name]; ok {
		return v, true
	}
	return "", false
}
