// Package paths provides dotted-path access into nested mapping/sequence
// trees and arbitrary object graphs, plus enumeration of every addressable
// path inside a tree.
//
// A tree node is either a leaf value, a map[string]any or a []any. A purely
// numeric path segment is treated as a sequence index only when the current
// node is a sequence; against a mapping it remains a string key.
package paths

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// DefaultSep is the segment separator used when none is given.
const DefaultSep = "."

// GetIn walks tree along the sep-delimited path and returns the value at the
// final segment. Missing mapping keys resolve to an empty mapping rather than
// an error; only a sequence index out of range fails the walk.
func GetIn(tree any, path string, sep string) (any, error) {
	segments, err := splitPath(path, sep)
	if err != nil {
		return nil, err
	}

	cur := tree
	for _, seg := range segments {
		next, err := descend(cur, seg, false)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// UpdateIn walks tree along the sep-delimited path and sets the value at the
// final segment, in place. Missing mapping keys along the way are created as
// empty mappings. Sequences are addressed by index but never grown.
func UpdateIn(tree any, path string, value any, sep string) error {
	segments, err := splitPath(path, sep)
	if err != nil {
		return err
	}

	var parent any
	last := segments[len(segments)-1]
	cur := tree
	for _, seg := range segments {
		parent = cur
		next, err := descend(cur, seg, true)
		if err != nil {
			return err
		}
		cur = next
	}

	switch node := parent.(type) {
	case []any:
		idx, _ := strconv.Atoi(last)
		node[idx] = value
	case map[string]any:
		node[last] = value
	default:
		return fmt.Errorf("cannot assign into %T at segment %q", parent, last)
	}
	return nil
}

// GetAttrIn walks an arbitrary object graph by dotted path. Sequences are
// indexed by integer, mappings by key and anything else is read as a named
// attribute. Missing keys, missing attributes and out-of-range indexes all
// resolve to nil rather than an error.
func GetAttrIn(obj any, path string) any {
	cur := obj
	for _, seg := range strings.Split(path, DefaultSep) {
		cur = attrStep(cur, seg)
	}
	return cur
}

// Enumerate returns every dotted path addressable inside tree, depth first,
// children before the container that holds them. Sequence elements contribute
// paths only when they are mappings themselves.
func Enumerate(tree map[string]any) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		switch v := tree[k].(type) {
		case map[string]any:
			for _, child := range Enumerate(v) {
				out = append(out, k+DefaultSep+child)
			}
			out = append(out, k)
		case []any:
			for i, item := range v {
				child, ok := item.(map[string]any)
				if !ok {
					continue
				}
				prefix := k + DefaultSep + strconv.Itoa(i)
				for _, p := range Enumerate(child) {
					out = append(out, prefix+DefaultSep+p)
				}
				out = append(out, prefix)
			}
		default:
			out = append(out, k)
		}
	}
	return out
}

func splitPath(path string, sep string) ([]string, error) {
	if sep == "" {
		sep = DefaultSep
	}
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	return strings.Split(path, sep), nil
}

// descend resolves one path segment against a tree node. With autoviv set,
// missing mapping keys are inserted as empty mappings so that a later
// assignment always has a container to land in.
func descend(node any, seg string, autoviv bool) (any, error) {
	switch n := node.(type) {
	case []any:
		if !isDigits(seg) {
			return nil, fmt.Errorf("segment %q is not an index into a sequence", seg)
		}
		idx, _ := strconv.Atoi(seg)
		if idx >= len(n) {
			return nil, fmt.Errorf("index %d out of range (sequence has %d elements)", idx, len(n))
		}
		return n[idx], nil
	case map[string]any:
		next, ok := n[seg]
		if !ok {
			next = map[string]any{}
			if autoviv {
				n[seg] = next
			}
		}
		return next, nil
	default:
		return nil, fmt.Errorf("cannot descend into %T at segment %q", node, seg)
	}
}

func attrStep(obj any, seg string) any {
	if obj == nil {
		return nil
	}
	if m, ok := obj.(map[string]any); ok {
		return m[seg]
	}
	if s, ok := obj.([]any); ok {
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(s) {
			return nil
		}
		return s[idx]
	}

	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= v.Len() {
			return nil
		}
		return v.Index(idx).Interface()
	case reflect.Map:
		mv := v.MapIndex(reflect.ValueOf(seg))
		if !mv.IsValid() {
			return nil
		}
		return mv.Interface()
	case reflect.Struct:
		return structField(v, seg)
	default:
		return nil
	}
}

// structField reads a struct field by its json tag name, falling back to a
// case-insensitive match on the Go field name.
func structField(v reflect.Value, name string) any {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if idx := strings.Index(tag, ","); idx != -1 {
			tag = tag[:idx]
		}
		if tag == name || (tag == "" && strings.EqualFold(f.Name, name)) {
			return v.Field(i).Interface()
		}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return v.Field(i).Interface()
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
