// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package web_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/document"
	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/parser"
	"carvel.dev/hitch/pkg/providers/web"
)

func evalDoc(t *testing.T, src string) *orderedmap.Map {
	file, err := document.Parse([]byte(src), "test.yaml")
	require.NoError(t, err)

	reg := hooks.NewRegistry()
	web.Register(reg)

	ctx := parser.NewContext(parser.Opts{Registry: reg, File: file, NoInput: true})
	out, err := ctx.Run()
	require.NoError(t, err)
	return out.(*orderedmap.Map)
}

func TestHTTPGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"name": "demo", "count": 3, "tags": ["a"]}`)
	}))
	defer srv.Close()

	out := evalDoc(t, fmt.Sprintf("resp->: http_get %s\n", srv.URL))

	resp, _ := out.Get("resp")
	respMap := resp.(*orderedmap.Map)

	name, _ := respMap.Get("name")
	require.Equal(t, "demo", name)

	// numbers decode as native ints, not json.Number or float64
	count, _ := respMap.Get("count")
	require.Equal(t, 3, count)

	tags, _ := respMap.Get("tags")
	require.Equal(t, []interface{}{"a"}, tags)
}

func TestHTTPGetPlainTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "plain body")
	}))
	defer srv.Close()

	out := evalDoc(t, fmt.Sprintf("resp->: http_get %s\n", srv.URL))

	resp, _ := out.Get("resp")
	require.Equal(t, "plain body", resp)
}

func TestHTTPGetParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Query().Get("q"))
	}))
	defer srv.Close()

	src := fmt.Sprintf(`
resp->:
  ->: http_get
  url: %s
  params:
    q: needle
`, srv.URL)

	out := evalDoc(t, src)
	resp, _ := out.Get("resp")
	require.Equal(t, "needle", resp)
}

func TestHTTPPostJSONBody(t *testing.T) {
	var gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	src := fmt.Sprintf(`
resp->:
  ->: http_post
  url: %s
  body:
    name: demo
`, srv.URL)

	evalDoc(t, src)

	require.Equal(t, "application/json", gotContentType)
	require.JSONEq(t, `{"name": "demo"}`, gotBody)
}

func TestHTTPPostStringBody(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
	}))
	defer srv.Close()

	src := fmt.Sprintf(`
resp->:
  ->: http_post
  url: %s
  body: raw payload
`, srv.URL)

	evalDoc(t, src)
	require.Equal(t, "raw payload", gotBody)
}

func TestHTTPGetHeaders(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Token")
	}))
	defer srv.Close()

	src := fmt.Sprintf(`
resp->:
  ->: http_get
  url: %s
  headers:
    X-Token: abc123
`, srv.URL)

	evalDoc(t, src)
	require.Equal(t, "abc123", gotHeader)
}

func TestHTTPGetErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	file, err := document.Parse([]byte(fmt.Sprintf("resp->: http_get %s\n", srv.URL)), "test.yaml")
	require.NoError(t, err)

	reg := hooks.NewRegistry()
	web.Register(reg)

	ctx := parser.NewContext(parser.Opts{Registry: reg, File: file, NoInput: true})
	_, err = ctx.Run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestHTTPGetNoExitKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "not here")
	}))
	defer srv.Close()

	src := fmt.Sprintf(`
resp->:
  ->: http_get
  url: %s
  no_exit: true
`, srv.URL)

	out := evalDoc(t, src)
	resp, _ := out.Get("resp")
	require.Equal(t, "not here", resp)
}

func TestHTTPDeleteReturnsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out := evalDoc(t, fmt.Sprintf("resp->: http_delete %s\n", srv.URL))

	resp, _ := out.Get("resp")
	require.Equal(t, http.StatusNoContent, resp)
}
