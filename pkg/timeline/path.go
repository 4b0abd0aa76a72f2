package timeline

import (
	"fmt"
	"strings"
)

type stepKind int

const (
	stepKey stepKind = iota
	stepIndex
	stepFind
)

// Step is one hop of a Path
type Step struct {
	kind  stepKind
	key   string
	index int
}

// Key descends into an object member
func Key(name string) Step { return Step{kind: stepKey, key: name} }

// Index selects an array element; negative values count from the end
func Index(i int) Step { return Step{kind: stepIndex, index: i} }

// Find selects the first array element that is an object with member key,
// then descends into that member.
func Find(key string) Step { return Step{kind: stepFind, key: key} }

func (s Step) String() string {
	switch s.kind {
	case stepIndex:
		return fmt.Sprintf("[%d]", s.index)
	case stepFind:
		return fmt.Sprintf("[?%s]", s.key)
	}
	return s.key
}

// Path locates a value inside a decoded JSON document
type Path []Step

// Keys builds a Path of object members
func Keys(names ...string) Path {
	p := make(Path, len(names))
	for i, n := range names {
		p[i] = Key(n)
	}
	return p
}

// Then returns a new Path with steps appended
func (p Path) Then(steps ...Step) Path {
	out := make(Path, 0, len(p)+len(steps))
	return append(append(out, p...), steps...)
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Lookup walks doc along p. It reports false when any step is missing or
// lands on a value of the wrong type.
func (p Path) Lookup(doc any) (any, bool) {
	cur := doc
	for _, s := range p {
		switch s.kind {
		case stepKey:
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = obj[s.key]; !ok {
				return nil, false
			}
		case stepIndex:
			arr, ok := cur.([]any)
			if !ok {
				return nil, false
			}
			i := s.index
			if i < 0 {
				i += len(arr)
			}
			if i < 0 || i >= len(arr) {
				return nil, false
			}
			cur = arr[i]
		case stepFind:
			arr, ok := cur.([]any)
			if !ok {
				return nil, false
			}
			found := false
			for _, el := range arr {
				if obj, ok := el.(map[string]any); ok {
					if v, ok := obj[s.key]; ok {
						cur, found = v, true
						break
					}
				}
			}
			if !found {
				return nil, false
			}
		}
	}
	return cur, true
}
