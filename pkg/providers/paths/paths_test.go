// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package paths_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/document"
	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/parser"
	"carvel.dev/hitch/pkg/providers/paths"
)

func evalDoc(t *testing.T, src string) *orderedmap.Map {
	file, err := document.Parse([]byte(src), "test.yaml")
	require.NoError(t, err)

	reg := hooks.NewRegistry()
	paths.Register(reg)

	ctx := parser.NewContext(parser.Opts{Registry: reg, File: file, NoInput: true})
	out, err := ctx.Run()
	require.NoError(t, err)
	return out.(*orderedmap.Map)
}

func TestBasenameAndDirname(t *testing.T) {
	out := evalDoc(t, `
base->: basename /a/b/c.txt
dir->: dirname /a/b/c.txt
`)
	base, _ := out.Get("base")
	require.Equal(t, "c.txt", base)
	dir, _ := out.Get("dir")
	require.Equal(t, "/a/b", dir)
}

func TestPathJoin(t *testing.T) {
	out := evalDoc(t, `
joined->:
  ->: path_join
  paths: [a, b, c.txt]
`)
	joined, _ := out.Get("joined")
	require.Equal(t, filepath.Join("a", "b", "c.txt"), joined)
}

func TestPathExists(t *testing.T) {
	tmp := t.TempDir()

	out := evalDoc(t, fmt.Sprintf(`
there->: path_exists %s
missing->: path_exists %s/nope
`, tmp, tmp))

	there, _ := out.Get("there")
	require.Equal(t, true, there)
	missing, _ := out.Get("missing")
	require.Equal(t, false, missing)
}

func TestMkdirIsDirIsFile(t *testing.T) {
	tmp := t.TempDir()
	filePath := filepath.Join(tmp, "f.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))

	out := evalDoc(t, fmt.Sprintf(`
made->: mkdir %s/x/y
isdir->: is_dir %s/x/y
dirfile->: is_file %s/x/y
isfile->: is_file %s
filedir->: is_dir %s
`, tmp, tmp, tmp, filePath, filePath))

	made, _ := out.Get("made")
	require.Equal(t, tmp+"/x/y", made)

	isdir, _ := out.Get("isdir")
	require.Equal(t, true, isdir)
	dirfile, _ := out.Get("dirfile")
	require.Equal(t, false, dirfile)

	isfile, _ := out.Get("isfile")
	require.Equal(t, true, isfile)
	filedir, _ := out.Get("filedir")
	require.Equal(t, false, filedir)
}

func TestAbsPath(t *testing.T) {
	out := evalDoc(t, `{"abs->": "abs_path ."}`)

	abs, _ := out.Get("abs")
	require.True(t, filepath.IsAbs(abs.(string)))
}
