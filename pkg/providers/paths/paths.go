// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package paths provides filesystem path hooks.
package paths

import (
	"os"
	"path/filepath"

	"carvel.dev/hitch/pkg/hooks"
)

func Register(reg *hooks.Registry) {
	reg.Register(unaryDecl("basename", "Returns the last element of a path", func(path string) (interface{}, error) {
		return filepath.Base(path), nil
	}))
	reg.Register(unaryDecl("dirname", "Returns a path without its last element", func(path string) (interface{}, error) {
		return filepath.Dir(path), nil
	}))
	reg.Register(unaryDecl("abs_path", "Resolves a path to an absolute one", func(path string) (interface{}, error) {
		return filepath.Abs(path)
	}))
	reg.Register(unaryDecl("path_exists", "Reports whether a path exists", func(path string) (interface{}, error) {
		_, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return nil, err
		}
		return true, nil
	}))
	reg.Register(unaryDecl("mkdir", "Creates a directory, parents included", func(path string) (interface{}, error) {
		err := os.MkdirAll(path, 0755)
		if err != nil {
			return nil, err
		}
		return path, nil
	}))
	reg.Register(pathJoinDecl())
	reg.Register(isDirDecl())
	reg.Register(isFileDecl())
}

func unaryDecl(name, help string, run func(path string) (interface{}, error)) *hooks.Declaration {
	return &hooks.Declaration{
		Name:   name,
		Public: true,
		Help:   help,
		Fields: []*hooks.Field{
			{Name: "path", Type: hooks.TypeStr},
		},
		Args: []string{"path"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			return run(in.Str("path"))
		},
	}
}

func pathJoinDecl() *hooks.Declaration {
	return &hooks.Declaration{
		Name:   "path_join",
		Public: true,
		Help:   "Joins path elements with the OS separator",
		Fields: []*hooks.Field{
			{Name: "paths", Type: hooks.TypeList},
		},
		Args: []string{"paths"},
		Run: func(rc hooks.RunContext, in hooks.Inputs) (interface{}, error) {
			var pieces []string
			for _, item := range in.List("paths") {
				if str, ok := item.(string); ok {
					pieces = append(pieces, str)
				}
			}
			return filepath.Join(pieces...), nil
		},
	}
}

func isDirDecl() *hooks.Declaration {
	return unaryDecl("is_dir", "Reports whether a path is a directory", func(path string) (interface{}, error) {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return nil, err
		}
		return info.IsDir(), nil
	})
}

func isFileDecl() *hooks.Declaration {
	return unaryDecl("is_file", "Reports whether a path is a regular file", func(path string) (interface{}, error) {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return nil, err
		}
		return info.Mode().IsRegular(), nil
	})
}
