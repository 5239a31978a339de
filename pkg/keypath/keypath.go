// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package keypath locates values within a document tree built out of
// *orderedmap.Map, []interface{} and scalars. A Path is an ordered sequence of
// string keys and int indexes from the document root down to one value.
package keypath

import (
	"fmt"
	"strconv"
	"strings"

	"carvel.dev/hitch/pkg/orderedmap"
)

// Path steps are string (map key) or int (sequence index).
type Path []interface{}

func NewPath(steps ...interface{}) Path {
	p := Path{}
	for _, step := range steps {
		p = append(p, step)
	}
	return p
}

// ParseString splits a separated string path, converting integer-looking
// segments into indexes: "a/0/b" => ["a", 0, "b"].
func ParseString(str, sep string) Path {
	if str == "" {
		return Path{}
	}
	var result Path
	for _, piece := range strings.Split(str, sep) {
		if idx, err := strconv.Atoi(piece); err == nil {
			result = append(result, idx)
		} else {
			result = append(result, piece)
		}
	}
	return result
}

// FromValue accepts either a preassembled list path or a separated string.
func FromValue(val interface{}, sep string) (Path, error) {
	switch typedVal := val.(type) {
	case string:
		return ParseString(typedVal, sep), nil
	case []interface{}:
		var result Path
		for _, step := range typedVal {
			switch typedStep := step.(type) {
			case string, int:
				result = append(result, typedStep)
			case int64:
				result = append(result, int(typedStep))
			default:
				return nil, fmt.Errorf("Expected path step to be string or int, but was %T", step)
			}
		}
		return result, nil
	default:
		return nil, fmt.Errorf("Expected path to be string or list, but was %T", val)
	}
}

func (p Path) Copy() Path {
	result := make(Path, len(p))
	copy(result, p)
	return result
}

func (p Path) Push(step interface{}) Path {
	return append(p.Copy(), step)
}

func (p Path) String() string {
	var b strings.Builder
	for i, step := range p {
		switch typedStep := step.(type) {
		case string:
			if i > 0 {
				b.WriteString(".")
			}
			b.WriteString(typedStep)
		case int:
			b.WriteString(fmt.Sprintf("[%d]", typedStep))
		default:
			b.WriteString(fmt.Sprintf("%v", typedStep))
		}
	}
	return b.String()
}

// Get walks root down the path. Second result is false when any step is
// missing or mistyped.
func Get(root interface{}, path Path) (interface{}, bool) {
	cur := root
	for _, step := range path {
		switch typedStep := step.(type) {
		case string:
			curMap, ok := cur.(*orderedmap.Map)
			if !ok {
				return nil, false
			}
			val, found := curMap.Get(typedStep)
			if !found {
				return nil, false
			}
			cur = val
		case int:
			curList, ok := cur.([]interface{})
			if !ok || typedStep < 0 || typedStep >= len(curList) {
				return nil, false
			}
			cur = curList[typedStep]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Set writes value at path under root, creating intermediate maps for missing
// string steps. root must be a *orderedmap.Map; an empty path is an error.
func Set(root *orderedmap.Map, path Path, value interface{}) error {
	if len(path) == 0 {
		return fmt.Errorf("Expected non-empty path")
	}

	var cur interface{} = root
	for _, step := range path[:len(path)-1] {
		switch typedStep := step.(type) {
		case string:
			curMap, ok := cur.(*orderedmap.Map)
			if !ok {
				return fmt.Errorf("Expected map at '%s' within path %s", typedStep, path.String())
			}
			next, found := curMap.Get(typedStep)
			if !found {
				next = orderedmap.NewMap()
				curMap.Set(typedStep, next)
			}
			cur = next
		case int:
			curList, ok := cur.([]interface{})
			if !ok || typedStep < 0 || typedStep >= len(curList) {
				return fmt.Errorf("Expected list index %d to exist within path %s", typedStep, path.String())
			}
			cur = curList[typedStep]
		default:
			return fmt.Errorf("Expected path step to be string or int, but was %T", step)
		}
	}

	lastStep := path[len(path)-1]
	switch typedStep := lastStep.(type) {
	case string:
		curMap, ok := cur.(*orderedmap.Map)
		if !ok {
			return fmt.Errorf("Expected map at '%s' within path %s", typedStep, path.String())
		}
		curMap.Set(typedStep, value)
	case int:
		curList, ok := cur.([]interface{})
		if !ok || typedStep < 0 || typedStep >= len(curList) {
			return fmt.Errorf("Expected list index %d to exist within path %s", typedStep, path.String())
		}
		curList[typedStep] = value
	default:
		return fmt.Errorf("Expected path step to be string or int, but was %T", lastStep)
	}
	return nil
}

// Delete removes the value at path. Only map keys can be deleted.
func Delete(root *orderedmap.Map, path Path) bool {
	if len(path) == 0 {
		return false
	}
	parent, found := Get(root, path[:len(path)-1])
	if !found {
		return false
	}
	parentMap, ok := parent.(*orderedmap.Map)
	if !ok {
		return false
	}
	lastStep, ok := path[len(path)-1].(string)
	if !ok {
		return false
	}
	return parentMap.Delete(lastStep)
}
