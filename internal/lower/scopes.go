package lower

import "shadeir/internal/ir"

// scopeStack maps declaration names to their lowered values. Inner scopes
// shadow outer ones.
type scopeStack struct {
	scopes []map[string]ir.Value
}

func (s *scopeStack) push() {
	s.scopes = append(s.scopes, make(map[string]ir.Value))
}

func (s *scopeStack) pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

func (s *scopeStack) depth() int { return len(s.scopes) }

func (s *scopeStack) set(name string, v ir.Value) {
	s.scopes[len(s.scopes)-1][name] = v
}

func (s *scopeStack) get(name string) (ir.Value, bool) {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}
