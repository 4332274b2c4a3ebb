package memory

import "strings"

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func getNode(root map[string]interface{}, parts []string) interface{} {
	var node interface{} = root
	for _, part := range parts {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil
		}
		node = m[part]
	}
	return node
}

// setNode writes value at the given path, creating intermediate objects and
// pruning subtrees emptied by a nil write.
func setNode(root map[string]interface{}, parts []string, value interface{}) {
	if len(parts) == 0 {
		for k := range root {
			delete(root, k)
		}
		if m, ok := value.(map[string]interface{}); ok {
			for k, v := range m {
				root[k] = v
			}
		}
		return
	}

	node := root
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]interface{})
		if !ok {
			if value == nil {
				return
			}
			child = make(map[string]interface{})
			node[part] = child
		}
		node = child
	}

	last := parts[len(parts)-1]
	if value == nil || isEmptyValue(value) {
		delete(node, last)
	} else {
		node[last] = value
	}
	pruneEmpty(root, parts[:len(parts)-1])
}

// pruneEmpty removes empty object nodes along the path, so a deleted leaf
// never leaves a trail of hollow parents behind.
func pruneEmpty(root map[string]interface{}, parts []string) {
	for i := len(parts); i > 0; i-- {
		parent := root
		ok := true
		for _, part := range parts[:i-1] {
			parent, ok = parent[part].(map[string]interface{})
			if !ok {
				return
			}
		}
		child, isMap := parent[parts[i-1]].(map[string]interface{})
		if isMap && len(child) == 0 {
			delete(parent, parts[i-1])
		}
	}
}

func isEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case map[string]interface{}:
		return len(v) == 0
	case []interface{}:
		return len(v) == 0
	default:
		return false
	}
}

func deepCopy(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = deepCopy(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}

// pathsIntersect reports whether one path is an ancestor of (or equal to)
// the other. A write anywhere inside a subscribed subtree, or above it,
// changes the value the subscriber observes.
func pathsIntersect(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
