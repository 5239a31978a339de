// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package web provides HTTP request hooks. JSON responses decode into ordered
// document values; anything else comes back as a string body.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
)

var client = &http.Client{Timeout: 60 * time.Second}

func Register(reg *hooks.Registry) {
	reg.Register(requestDecl("http_get", http.MethodGet))
	reg.Register(requestDecl("http_post", http.MethodPost))
	reg.Register(requestDecl("http_put", http.MethodPut))
	reg.Register(requestDecl("http_patch", http.MethodPatch))
	reg.Register(deleteDecl())
}

func requestFields() []*hooks.Field {
	return []*hooks.Field{
		{Name: "url", Type: hooks.TypeStr},
		{Name: "headers", Type: hooks.TypeMap, HasDefault: true},
		{Name: "params", Type: hooks.TypeMap, HasDefault: true},
		{Name: "body", Type: hooks.TypeAny, HasDefault: true},
		{Name: "no_exit", Type: hooks.TypeBool, HasDefault: true},
	}
}

func requestDecl(name, method string) *hooks.Declaration {
	return &hooks.Declaration{
		Name:   name,
		Public: true,
		Help:   fmt.Sprintf("Performs an HTTP %s request", method),
		Fields: requestFields(),
		Args:   []string{"url"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			resp, status, err := doRequest(method, in)
			if err != nil {
				return nil, err
			}
			if status < 200 || status > 299 {
				if in.Bool("no_exit") {
					return resp, nil
				}
				return nil, fmt.Errorf("Request returned status %d", status)
			}
			return resp, nil
		},
	}
}

// deleteDecl returns the response status code rather than the body, matching
// the common use of delete calls for their effect only.
func deleteDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "http_delete",
		Public: true,
		Help:   "Performs an HTTP DELETE request and returns the status code",
		Fields: requestFields(),
		Args:   []string{"url"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			_, status, err := doRequest(http.MethodDelete, in)
			if err != nil {
				return nil, err
			}
			if (status < 200 || status > 299) && !in.Bool("no_exit") {
				return nil, fmt.Errorf("Request returned status %d", status)
			}
			return status, nil
		},
	}
}

func doRequest(method string, in hooks.Inputs) (interface{}, int, error) {
	target, err := buildURL(in.Str("url"), in.Map("params"))
	if err != nil {
		return nil, 0, err
	}

	var reqBody io.Reader
	contentType := ""
	if body := in["body"]; body != nil {
		switch typedBody := body.(type) {
		case string:
			reqBody = strings.NewReader(typedBody)
		default:
			encoded, err := json.Marshal(orderedmap.Conversion{Object: typedBody}.AsUnorderedStringMaps())
			if err != nil {
				return nil, 0, fmt.Errorf("Encoding request body: %s", err)
			}
			reqBody = bytes.NewReader(encoded)
			contentType = "application/json"
		}
	}

	req, err := http.NewRequest(method, target, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if headers := in.Map("headers"); headers != nil {
		headers.Iterate(func(k, v interface{}) {
			req.Header.Set(fmt.Sprintf("%v", k), fmt.Sprintf("%v", v))
		})
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}

	return decodeBody(resp, data), resp.StatusCode, nil
}

func buildURL(base string, params *orderedmap.Map) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("Parsing url: %s", err)
	}
	if params != nil && params.Len() > 0 {
		query := parsed.Query()
		params.Iterate(func(k, v interface{}) {
			query.Set(fmt.Sprintf("%v", k), fmt.Sprintf("%v", v))
		})
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}

// decodeBody keeps JSON object key order by decoding through the ordered
// document parser; non-JSON responses stay raw strings.
func decodeBody(resp *http.Response, data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		var raw interface{}
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err == nil {
			return fromJSONValue(raw)
		}
	}
	return string(data)
}

func fromJSONValue(val interface{}) interface{} {
	switch typedVal := val.(type) {
	case map[string]interface{}:
		return orderedmap.Conversion{Object: convertNumbers(typedVal)}.FromUnorderedMaps()
	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = fromJSONValue(item)
		}
		return result
	case json.Number:
		if i, err := typedVal.Int64(); err == nil {
			return int(i)
		}
		f, _ := typedVal.Float64()
		return f
	default:
		return val
	}
}

// convertNumbers rewrites json.Number leaves into int/float64 ahead of the
// ordered-map conversion.
func convertNumbers(m map[string]interface{}) map[string]interface{} {
	result := map[string]interface{}{}
	for k, v := range m {
		switch typedVal := v.(type) {
		case map[string]interface{}:
			result[k] = convertNumbers(typedVal)
		case []interface{}:
			items := make([]interface{}, len(typedVal))
			for i, item := range typedVal {
				items[i] = fromJSONValue(item)
			}
			result[k] = items
		case json.Number:
			result[k] = fromJSONValue(typedVal)
		default:
			result[k] = v
		}
	}
	return result
}
