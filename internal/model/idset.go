package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"
)

// IDSet is a persistent set of node ids. Add and Remove return a new set and
// leave the receiver untouched; the zero value is an empty set.
type IDSet struct {
	m *immutable.Map[string, struct{}]
}

func NewIDSet(ids ...string) IDSet {
	var s IDSet
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

func (s IDSet) Has(id string) bool {
	if s.m == nil {
		return false
	}
	_, ok := s.m.Get(id)
	return ok
}

func (s IDSet) Add(id string) IDSet {
	if s.Has(id) {
		return s
	}
	m := s.m
	if m == nil {
		m = immutable.NewMap[string, struct{}](nil)
	}
	return IDSet{m: m.Set(id, struct{}{})}
}

func (s IDSet) Remove(id string) IDSet {
	if !s.Has(id) {
		return s
	}
	return IDSet{m: s.m.Delete(id)}
}

// Set adds or removes id depending on present.
func (s IDSet) Set(id string, present bool) IDSet {
	if present {
		return s.Add(id)
	}
	return s.Remove(id)
}

func (s IDSet) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Items returns the members sorted, so output is stable.
func (s IDSet) Items() []string {
	out := make([]string, 0, s.Len())
	if s.m == nil {
		return out
	}
	itr := s.m.Iterator()
	for !itr.Done() {
		k, _, _ := itr.Next()
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SameAs reports whether both sets share the same underlying structure.
// Equal contents built independently may still report false.
func (s IDSet) SameAs(o IDSet) bool { return s.m == o.m }

func (s IDSet) Equal(o IDSet) bool {
	if s.SameAs(o) {
		return true
	}
	if s.Len() != o.Len() {
		return false
	}
	for _, id := range s.Items() {
		if !o.Has(id) {
			return false
		}
	}
	return true
}

// Filter keeps the members for which keep returns true.
func (s IDSet) Filter(keep func(id string) bool) IDSet {
	out := s
	for _, id := range s.Items() {
		if !keep(id) {
			out = out.Remove(id)
		}
	}
	return out
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

// UnmarshalJSON accepts a JSON array of ids or an object keyed by id (values
// must be true or non-false), so either persisted shape rebuilds a real set.
func (s *IDSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err == nil {
		*s = NewIDSet(ids...)
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("id set: expected array or object: %w", err)
	}
	out := IDSet{}
	for id, v := range obj {
		if present, ok := v.(bool); ok && !present {
			continue
		}
		out = out.Add(id)
	}
	*s = out
	return nil
}
