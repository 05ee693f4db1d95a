package record

import "slices"

// Summary is an insertion-ordered string map of database summary fields.
type Summary struct {
	keys []string
	vals map[string]string
}

// NewSummary builds a summary from alternating key, value arguments.
func NewSummary(kv ...string) *Summary {
	s := &Summary{vals: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		s.Set(kv[i], kv[i+1])
	}
	return s
}

// Set stores value under key. A new key is appended, an existing key keeps its position.
func (s *Summary) Set(key, value string) {
	if s.vals == nil {
		s.vals = map[string]string{}
	}
	if _, ok := s.vals[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.vals[key] = value
}

// Get returns the value stored under key.
func (s *Summary) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.vals[key]
	return v, ok
}

// Delete removes key.
func (s *Summary) Delete(key string) {
	if s == nil {
		return
	}
	if _, ok := s.vals[key]; !ok {
		return
	}
	delete(s.vals, key)
	s.keys = slices.DeleteFunc(s.keys, func(k string) bool { return k == key })
}

// Keys returns the keys in insertion order.
func (s *Summary) Keys() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.keys)
}

// Len returns the number of fields.
func (s *Summary) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Copy returns an independent copy.
func (s *Summary) Copy() *Summary {
	if s == nil {
		return nil
	}
	cp := &Summary{keys: slices.Clone(s.keys), vals: make(map[string]string, len(s.vals))}
	for k, v := range s.vals {
		cp.vals[k] = v
	}
	return cp
}
