// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package gen provides the generate hook: rendering a template file or
// directory tree into an output location, with path names and file contents
// both template-evaluated against the run's data.
package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/k14s/difflib"

	"carvel.dev/hitch/pkg/hooks"
)

func Register(reg *hooks.Registry) {
	reg.Register(generateDecl())
}

func generateDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "generate",
		Public: true,
		Help:   "Renders a template file or directory into an output path",
		Fields: []*hooks.Field{
			{Name: "templates", Type: hooks.TypeStr},
			{Name: "output", Type: hooks.TypeStr, Default: ".", HasDefault: true},
			{Name: "copy_without_render", Type: hooks.TypeList, HasDefault: true},
			{Name: "overwrite_if_exists", Type: hooks.TypeBool, Default: true, HasDefault: true},
			{Name: "skip_if_file_exists", Type: hooks.TypeBool, HasDefault: true},
		},
		Args:       []string{"templates", "output"},
		SkipOutput: true,
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			g := generator{
				rc:        rc,
				copyGlobs: stringList(in.List("copy_without_render")),
				overwrite: in.Bool("overwrite_if_exists"),
				skip:      in.Bool("skip_if_file_exists"),
			}

			src := in.Str("templates")
			if !filepath.IsAbs(src) {
				src = filepath.Join(rc.CurrentDirectory(), src)
			}

			written, err := g.generate(src, in.Str("output"))
			if err != nil {
				return nil, err
			}
			return written, nil
		},
	}
}

type generator struct {
	rc        hooks.RunContext
	copyGlobs []string
	overwrite bool
	skip      bool
}

// generate walks src, which may be one file or a directory tree, rendering
// every path name and file body into dst. Returns the list of written paths.
func (g *generator) generate(src, dst string) ([]interface{}, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("Reading templates path: %s", err)
	}

	written := []interface{}{}

	if !info.IsDir() {
		target, err := g.renderPath(filepath.Join(dst, filepath.Base(src)))
		if err != nil {
			return nil, err
		}
		wrote, err := g.generateFile(src, target)
		if err != nil {
			return nil, err
		}
		if wrote {
			written = append(written, target)
		}
		return written, nil
	}

	err = filepath.Walk(src, func(path string, entry os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		target, err := g.renderPath(filepath.Join(dst, rel))
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		wrote, err := g.generateFile(path, target)
		if err != nil {
			return err
		}
		if wrote {
			written = append(written, target)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return written, nil
}

// renderPath template-evaluates a destination path, so directory and file
// names like "{{project_name}}.go" resolve against the run's data.
func (g *generator) renderPath(path string) (string, error) {
	rendered, err := g.rc.RenderString(path)
	if err != nil {
		return "", err
	}
	str, ok := rendered.(string)
	if !ok {
		return "", fmt.Errorf("Expected path '%s' to render to a string, but was %T", path, rendered)
	}
	return str, nil
}

func (g *generator) generateFile(src, dst string) (bool, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return false, err
	}

	content := string(data)
	if !g.matchesCopyGlob(src) {
		rendered, err := g.rc.RenderString(content)
		if err != nil {
			return false, err
		}
		content = stringifyContent(rendered)
	}

	if existing, err := os.ReadFile(dst); err == nil {
		if g.skip {
			g.rc.UI().Debugf("generate: skipping existing file %s\n", dst)
			return false, nil
		}
		if !g.overwrite {
			return false, fmt.Errorf("File %s already exists", dst)
		}
		if string(existing) != content {
			g.rc.UI().Debugf("generate: overwriting %s\n%s", dst,
				difflib.PPDiff(strings.Split(string(existing), "\n"), strings.Split(content, "\n")))
		}
	}

	err = os.MkdirAll(filepath.Dir(dst), 0755)
	if err != nil {
		return false, err
	}
	err = os.WriteFile(dst, []byte(content), 0644)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *generator) matchesCopyGlob(path string) bool {
	base := filepath.Base(path)
	for _, glob := range g.copyGlobs {
		if matched, _ := filepath.Match(glob, base); matched {
			return true
		}
		if matched, _ := filepath.Match(glob, path); matched {
			return true
		}
	}
	return false
}

func stringifyContent(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	return fmt.Sprintf("%v", val)
}

func stringList(items []interface{}) []string {
	var result []string
	for _, item := range items {
		if str, ok := item.(string); ok {
			result = append(result, str)
		}
	}
	return result
}
