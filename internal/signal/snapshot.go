package signal

import "strings"

// InputSnapshot holds the levels of all inputs from one sampling pass.
// It is a value type; each pass produces a new one.
type InputSnapshot struct {
	levels [NumInputs]bool
}

// Get returns the level of input i (true = high).
func (s InputSnapshot) Get(i Input) bool { return s.levels[i] }

// Set records the level of input i.
func (s *InputSnapshot) Set(i Input, high bool) { s.levels[i] = high }

// Map returns the snapshot keyed by input name.
func (s InputSnapshot) Map() map[string]bool {
	m := make(map[string]bool, NumInputs)
	for i, v := range s.levels {
		m[Input(i).String()] = v
	}
	return m
}

// String lists the inputs that are high, e.g. "GR LST_LSP".
func (s InputSnapshot) String() string {
	var high []string
	for i, v := range s.levels {
		if v {
			high = append(high, Input(i).String())
		}
	}
	if len(high) == 0 {
		return "-"
	}
	return strings.Join(high, " ")
}

// OutputSnapshot holds the values the application logic supplies for one
// composition. Outputs that were never set are tracked as undefined so the
// composer can reject them instead of showing them as dark segments.
type OutputSnapshot struct {
	values  uint32
	defined uint32
}

// AllOutputs returns a snapshot with every output defined to v.
func AllOutputs(v bool) OutputSnapshot {
	mask := uint32(1)<<NumOutputs - 1
	s := OutputSnapshot{defined: mask}
	if v {
		s.values = mask
	}
	return s
}

// Set defines output o.
func (s *OutputSnapshot) Set(o Output, v bool) {
	bit := uint32(1) << o
	s.defined |= bit
	if v {
		s.values |= bit
	} else {
		s.values &^= bit
	}
}

// Get returns the value of o and whether it was defined.
func (s OutputSnapshot) Get(o Output) (v, ok bool) {
	bit := uint32(1) << o
	return s.values&bit != 0, s.defined&bit != 0
}

// Undefined returns the outputs that were never set, in catalog order.
func (s OutputSnapshot) Undefined() []Output {
	var missing []Output
	for i := 0; i < NumOutputs; i++ {
		if s.defined&(1<<i) == 0 {
			missing = append(missing, Output(i))
		}
	}
	return missing
}

// Map returns the defined outputs keyed by name.
func (s OutputSnapshot) Map() map[string]bool {
	m := make(map[string]bool, NumOutputs)
	for i := 0; i < NumOutputs; i++ {
		if v, ok := s.Get(Output(i)); ok {
			m[Output(i).String()] = v
		}
	}
	return m
}
