// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"carvel.dev/hitch/pkg/orderedmap"
)

type OutputFormat string

const (
	OutputYAML OutputFormat = "yaml"
	OutputJSON OutputFormat = "json"
	OutputTOML OutputFormat = "toml"
)

// Print encodes an output document in the given format. YAML and JSON keep
// document key order; TOML requires a map at the top level and sorts keys
// (its encoder works off plain maps).
func Print(val interface{}, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputYAML, "":
		return printYAML(val)
	case OutputJSON:
		var buf bytes.Buffer
		err := printJSON(&buf, val, 0)
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n")
		return buf.Bytes(), nil
	case OutputTOML:
		return printTOML(val)
	default:
		return nil, fmt.Errorf("Unknown output format '%s' (expected yaml, json or toml)", format)
	}
}

func printYAML(val interface{}) ([]byte, error) {
	node, err := toYAMLNode(val)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	err = enc.Encode(node)
	if err != nil {
		return nil, err
	}
	err = enc.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toYAMLNode(val interface{}) (*yaml.Node, error) {
	switch typedVal := val.(type) {
	case *orderedmap.Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		err := typedVal.IterateErr(func(k, v interface{}) error {
			keyNode := &yaml.Node{}
			err := keyNode.Encode(k)
			if err != nil {
				return err
			}
			valNode, err := toYAMLNode(v)
			if err != nil {
				return err
			}
			node.Content = append(node.Content, keyNode, valNode)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return node, nil

	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range typedVal {
			itemNode, err := toYAMLNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, itemNode)
		}
		return node, nil

	default:
		node := &yaml.Node{}
		err := node.Encode(val)
		if err != nil {
			return nil, err
		}
		return node, nil
	}
}

func printJSON(buf *bytes.Buffer, val interface{}, indent int) error {
	pad := strings.Repeat("  ", indent)

	switch typedVal := val.(type) {
	case *orderedmap.Map:
		if typedVal.Len() == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		items := typedVal.Items()
		for i, item := range items {
			keyBytes, err := json.Marshal(fmt.Sprintf("%v", item.Key))
			if err != nil {
				return err
			}
			buf.WriteString(pad + "  " + string(keyBytes) + ": ")
			err = printJSON(buf, item.Value, indent+1)
			if err != nil {
				return err
			}
			if i < len(items)-1 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
		}
		buf.WriteString(pad + "}")
		return nil

	case []interface{}:
		if len(typedVal) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range typedVal {
			buf.WriteString(pad + "  ")
			err := printJSON(buf, item, indent+1)
			if err != nil {
				return err
			}
			if i < len(typedVal)-1 {
				buf.WriteString(",")
			}
			buf.WriteString("\n")
		}
		buf.WriteString(pad + "]")
		return nil

	default:
		valBytes, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(valBytes)
		return nil
	}
}

func printTOML(val interface{}) ([]byte, error) {
	topMap, ok := val.(*orderedmap.Map)
	if !ok {
		return nil, fmt.Errorf("Expected output document to be a map for toml output, but was %T", val)
	}

	var buf bytes.Buffer
	err := toml.NewEncoder(&buf).Encode(orderedmap.Conversion{Object: topMap}.AsUnorderedStringMaps())
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
