// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package document loads structured input files (YAML, JSON, TOML) into
// ordered document trees (*orderedmap.Map, []interface{}, scalars) and prints
// output documents back out.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"carvel.dev/hitch/pkg/filepos"
	"carvel.dev/hitch/pkg/keypath"
	"carvel.dev/hitch/pkg/orderedmap"
)

// File is one parsed input document plus source positions of its nodes, used
// to enrich evaluation errors.
type File struct {
	Path  string
	Value interface{}

	positions map[string]*filepos.Position
}

// Position returns the source position of the node at path, or an unknown
// position within the file when the node was not tracked.
func (f *File) Position(path keypath.Path) *filepos.Position {
	if pos, found := f.positions[path.String()]; found {
		return pos
	}
	return filepos.NewUnknownPositionInFile(f.Path)
}

// Load reads and parses the file at path, picking the format by extension.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse parses data associated with file name path. ".toml" parses as TOML;
// everything else (".yaml", ".yml", ".json") parses as YAML since JSON is a
// subset of it.
func Parse(data []byte, path string) (*File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return parseTOML(data, path)
	default:
		return parseYAML(data, path)
	}
}

func parseYAML(data []byte, path string) (*File, error) {
	var root yaml.Node

	err := yaml.Unmarshal(data, &root)
	if err != nil {
		return nil, fmt.Errorf("Parsing %s: %s", path, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, fmt.Errorf("Parsing %s: Expected non-empty document", path)
	}

	file := &File{Path: path, positions: map[string]*filepos.Position{}}

	val, err := file.convertNode(root.Content[0], keypath.Path{})
	if err != nil {
		return nil, fmt.Errorf("Parsing %s: %s", path, err)
	}

	file.Value = val
	return file, nil
}

func (f *File) convertNode(node *yaml.Node, path keypath.Path) (interface{}, error) {
	if node.Line > 0 {
		f.positions[path.String()] = filepos.NewPositionInFile(node.Line, f.Path)
	}

	switch node.Kind {
	case yaml.MappingNode:
		result := orderedmap.NewMap()
		for i := 0; i < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]

			var key string
			err := keyNode.Decode(&key)
			if err != nil {
				return nil, fmt.Errorf("Expected map key at line %d to be a string: %s", keyNode.Line, err)
			}
			if _, found := result.Get(key); found {
				return nil, fmt.Errorf("Map item (key '%s') at line %d was already defined", key, keyNode.Line)
			}

			val, err := f.convertNode(valNode, path.Push(key))
			if err != nil {
				return nil, err
			}
			result.Set(key, val)
		}
		return result, nil

	case yaml.SequenceNode:
		result := []interface{}{}
		for i, itemNode := range node.Content {
			val, err := f.convertNode(itemNode, path.Push(i))
			if err != nil {
				return nil, err
			}
			result = append(result, val)
		}
		return result, nil

	case yaml.ScalarNode:
		var val interface{}
		err := node.Decode(&val)
		if err != nil {
			return nil, fmt.Errorf("Decoding scalar at line %d: %s", node.Line, err)
		}
		return val, nil

	case yaml.AliasNode:
		return f.convertNode(node.Alias, path)

	default:
		return nil, fmt.Errorf("Unexpected YAML node kind %d at line %d", node.Kind, node.Line)
	}
}

func parseTOML(data []byte, path string) (*File, error) {
	var raw map[string]interface{}

	err := toml.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("Parsing %s: %s", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("Parsing %s: Expected non-empty document", path)
	}

	// TOML decoding carries no node positions and no key ordering
	val := orderedmap.Conversion{Object: normalizeTOML(raw)}.FromUnorderedMaps()

	return &File{Path: path, Value: val, positions: map[string]*filepos.Position{}}, nil
}

func normalizeTOML(val interface{}) interface{} {
	switch typedVal := val.(type) {
	case map[string]interface{}:
		result := map[string]interface{}{}
		for k, v := range typedVal {
			result[k] = normalizeTOML(v)
		}
		return result
	case []map[string]interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = normalizeTOML(item)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = normalizeTOML(item)
		}
		return result
	case int64:
		return int(typedVal)
	default:
		return typedVal
	}
}
