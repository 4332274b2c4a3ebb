package store

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Snapshot is an immutable view of a subtree read from the store. A zero
// Snapshot represents an absent node.
type Snapshot struct {
	value interface{}
}

// NewSnapshot wraps a raw tree value in a Snapshot.
func NewSnapshot(value interface{}) Snapshot {
	return Snapshot{value: value}
}

// Value returns the raw tree value.
func (s Snapshot) Value() interface{} {
	return s.value
}

// Exists reports whether the node is present.
func (s Snapshot) Exists() bool {
	return s.value != nil
}

// Child navigates to a child node. The name may be a "/"-separated path.
// Numeric names index into array nodes.
func (s Snapshot) Child(name string) Snapshot {
	node := s
	for _, part := range strings.Split(name, "/") {
		if part == "" {
			continue
		}
		switch v := node.value.(type) {
		case map[string]interface{}:
			node = Snapshot{value: v[part]}
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return Snapshot{}
			}
			node = Snapshot{value: v[i]}
		default:
			return Snapshot{}
		}
	}
	return node
}

// HasChild reports whether the named child exists.
func (s Snapshot) HasChild(name string) bool {
	return s.Child(name).Exists()
}

// ChildCount returns the number of children of the node.
func (s Snapshot) ChildCount() int {
	switch v := s.value.(type) {
	case map[string]interface{}:
		return len(v)
	case []interface{}:
		n := 0
		for _, item := range v {
			if item != nil {
				n++
			}
		}
		return n
	default:
		return 0
	}
}

// Children returns the child nodes. Array children keep their order;
// object children are ordered by key.
func (s Snapshot) Children() []Snapshot {
	switch v := s.value.(type) {
	case map[string]interface{}:
		keys := s.Keys()
		children := make([]Snapshot, 0, len(keys))
		for _, k := range keys {
			children = append(children, Snapshot{value: v[k]})
		}
		return children
	case []interface{}:
		children := make([]Snapshot, 0, len(v))
		for _, item := range v {
			if item != nil {
				children = append(children, Snapshot{value: item})
			}
		}
		return children
	default:
		return nil
	}
}

// Keys returns the sorted keys of an object node.
func (s Snapshot) Keys() []string {
	v, ok := s.value.(map[string]interface{})
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the node value as a string.
func (s Snapshot) String() (string, bool) {
	v, ok := s.value.(string)
	return v, ok
}

// Bool returns the node value as a bool.
func (s Snapshot) Bool() (bool, bool) {
	v, ok := s.value.(bool)
	return v, ok
}

// Int64 returns the node value as an int64, accepting the numeric types
// produced by JSON decoding and by in-memory writes.
func (s Snapshot) Int64() (int64, bool) {
	switch v := s.value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case json.Number:
		i, err := v.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
