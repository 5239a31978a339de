// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package gen_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/document"
	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/parser"
	"carvel.dev/hitch/pkg/providers/gen"
)

func runDoc(t *testing.T, src string) error {
	file, err := document.Parse([]byte(src), "test.yaml")
	require.NoError(t, err)

	reg := hooks.NewRegistry()
	gen.Register(reg)

	ctx := parser.NewContext(parser.Opts{Registry: reg, File: file, NoInput: true})
	_, err = ctx.Run()
	return err
}

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestGenerateSingleFile(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "greeting.txt"), "hello {{name}}\n")

	err := runDoc(t, fmt.Sprintf(`
name: world
g->:
  ->: generate
  templates: %s/greeting.txt
  output: %s
`, src, dst))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "greeting.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello world\n", string(data))
}

func TestGenerateTreeRendersPathNames(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "{{pkg}}", "{{pkg}}.go.tmpl"), "package {{pkg}}\n")
	writeFile(t, filepath.Join(src, "README.md"), "# {{pkg}}\n")

	err := runDoc(t, fmt.Sprintf(`
pkg: core
g->:
  ->: generate
  templates: %s
  output: %s
`, src, dst))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "core", "core.go.tmpl"))
	require.NoError(t, err)
	require.Equal(t, "package core\n", string(data))

	data, err = os.ReadFile(filepath.Join(dst, "README.md"))
	require.NoError(t, err)
	require.Equal(t, "# core\n", string(data))
}

func TestGenerateCopyWithoutRender(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "raw.tmpl"), "verbatim {{name}}\n")

	err := runDoc(t, fmt.Sprintf(`
name: world
g->:
  ->: generate
  templates: %s
  output: %s
  copy_without_render: ["*.tmpl"]
`, src, dst))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "raw.tmpl"))
	require.NoError(t, err)
	require.Equal(t, "verbatim {{name}}\n", string(data))
}

func TestGenerateSkipIfFileExists(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new\n")
	writeFile(t, filepath.Join(dst, "a.txt"), "old\n")

	err := runDoc(t, fmt.Sprintf(`
g->:
  ->: generate
  templates: %s
  output: %s
  skip_if_file_exists: true
`, src, dst))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "old\n", string(data))
}

func TestGenerateNoOverwriteFails(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new\n")
	writeFile(t, filepath.Join(dst, "a.txt"), "old\n")

	err := runDoc(t, fmt.Sprintf(`
g->:
  ->: generate
  templates: %s
  output: %s
  overwrite_if_exists: false
`, src, dst))
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

func TestGenerateOverwriteByDefault(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "new\n")
	writeFile(t, filepath.Join(dst, "a.txt"), "old\n")

	err := runDoc(t, fmt.Sprintf(`
g->:
  ->: generate
  templates: %s
  output: %s
`, src, dst))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "new\n", string(data))
}

func TestGenerateMissingTemplatesFails(t *testing.T) {
	err := runDoc(t, fmt.Sprintf(`
g->:
  ->: generate
  templates: %s/nope
  output: %s
`, t.TempDir(), t.TempDir()))
	require.Error(t, err)
}
