// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package providers wires every built-in hook provider into a registry.
package providers

import (
	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/providers/contexts"
	"carvel.dev/hitch/pkg/providers/gen"
	"carvel.dev/hitch/pkg/providers/logic"
	"carvel.dev/hitch/pkg/providers/paths"
	"carvel.dev/hitch/pkg/providers/prompts"
	"carvel.dev/hitch/pkg/providers/strings"
	"carvel.dev/hitch/pkg/providers/web"
)

// RegisterAll installs the built-in hooks. The web hooks register lazily:
// their declarations only materialize on first dispatch.
func RegisterAll(reg *hooks.Registry) {
	logic.Register(reg)
	strings.Register(reg)
	contexts.Register(reg)
	prompts.Register(reg)
	paths.Register(reg)
	gen.Register(reg)

	registerWebLazily(reg)
}

func registerWebLazily(reg *hooks.Registry) {
	staging := hooks.NewRegistry()
	web.Register(staging)

	for _, name := range []string{"http_get", "http_post", "http_put", "http_patch", "http_delete"} {
		name := name
		reg.RegisterLazy(name, func() (*hooks.Declaration, error) {
			return staging.Lookup(name)
		})
	}
}
