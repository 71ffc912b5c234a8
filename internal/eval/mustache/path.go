package mustache

import (
	"strconv"
	"strings"
)

// sizeProperty is the synthetic segment yielding a collection's length
const sizeProperty = "size"

// Path is a parsed dotted identifier. The empty Path refers to the current
// scope (written ".").
type Path []string

// ParsePath splits a dotted identifier into segments
func ParsePath(name string) Path {
	if name == "." {
		return Path{}
	}
	return Path(strings.Split(name, "."))
}

// String returns the dotted form of p
func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	return strings.Join(p, ".")
}

// IsCurrent reports whether p refers to the current scope
func (p Path) IsCurrent() bool { return len(p) == 0 }

// validIdentifier reports whether name is a usable identifier: "." or
// non-empty dot separated segments without whitespace or tag characters.
func validIdentifier(name string) bool {
	if name == "." {
		return true
	}
	if name == "" || strings.ContainsAny(name, " \t\r\n{}") {
		return false
	}
	for _, seg := range strings.Split(name, ".") {
		if seg == "" {
			return false
		}
	}
	return true
}

// scopes is the per-render scope stack; the last element is innermost
type scopes []Value

// resolve looks p up against the scope stack. The first segment is searched
// from the innermost scope outwards; the rest descend from what was found.
func (s scopes) resolve(p Path) (Value, bool) {
	if len(s) == 0 {
		return Null, false
	}
	if p.IsCurrent() {
		return s[len(s)-1], true
	}
	for i := len(s) - 1; i >= 0; i-- {
		head, ok := child(s[i], p[0])
		if !ok {
			continue
		}
		return descend(head, p[1:])
	}
	return Null, false
}

// Resolve looks p up in root without any enclosing scopes
func Resolve(root Value, p Path) (Value, bool) {
	return scopes{root}.resolve(p)
}

func descend(v Value, segs []string) (Value, bool) {
	for _, seg := range segs {
		next, ok := child(v, seg)
		if !ok {
			return Null, false
		}
		v = next
	}
	return v, true
}

// child resolves a single segment against v
func child(v Value, seg string) (Value, bool) {
	switch v.kind {
	case KindMap:
		return v.m.Get(seg)
	case KindList, KindSet:
		if seg == sizeProperty {
			return Int(int64(len(v.elems))), true
		}
		if seg == "" || seg[0] < '0' || seg[0] > '9' {
			return Null, false
		}
		i, err := strconv.Atoi(seg)
		if err != nil || i >= len(v.elems) {
			return Null, false
		}
		return v.elems[i], true
	default:
		return Null, false
	}
}
