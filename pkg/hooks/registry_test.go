// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package hooks_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"carvel.dev/hitch/pkg/hooks"
)

func TestRegistryLookup(t *testing.T) {
	reg := hooks.NewRegistry()
	reg.Register(&hooks.Declaration{Name: "literal", Public: true})

	decl, err := reg.Lookup("literal")
	require.NoError(t, err)
	require.Equal(t, "literal", decl.Name)

	_, err = reg.Lookup("bogus")
	require.Error(t, err)
	require.IsType(t, hooks.UnknownHookError{}, err)
}

func TestRegistryLazyLoad(t *testing.T) {
	reg := hooks.NewRegistry()

	loads := 0
	reg.RegisterLazy("deferred", func() (*hooks.Declaration, error) {
		loads++
		return &hooks.Declaration{Name: "deferred"}, nil
	})

	require.Equal(t, 0, loads)

	decl, err := reg.Lookup("deferred")
	require.NoError(t, err)
	require.Equal(t, "deferred", decl.Name)
	require.Equal(t, 1, loads)

	// resolved declarations are cached
	_, err = reg.Lookup("deferred")
	require.NoError(t, err)
	require.Equal(t, 1, loads)
}

func TestRegistryLazyLoadRetriesOnce(t *testing.T) {
	reg := hooks.NewRegistry()

	loads := 0
	reg.RegisterLazy("broken", func() (*hooks.Declaration, error) {
		loads++
		return nil, fmt.Errorf("no such provider")
	})

	_, err := reg.Lookup("broken")
	require.Error(t, err)
	require.Contains(t, err.Error(), "will retry once")

	_, err = reg.Lookup("broken")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed twice")
	require.Equal(t, 2, loads)

	// permanently failed; the loader never runs again
	_, err = reg.Lookup("broken")
	require.Error(t, err)
	require.Equal(t, 2, loads)
}

func TestRegistryIDsAreUnique(t *testing.T) {
	require.NotEqual(t, hooks.NewRegistry().ID(), hooks.NewRegistry().ID())
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := hooks.NewRegistry()
	reg.Register(&hooks.Declaration{Name: "zeta"})
	reg.Register(&hooks.Declaration{Name: "alpha"})
	reg.RegisterLazy("mid", func() (*hooks.Declaration, error) { return nil, nil })

	require.Equal(t, []string{"alpha", "mid", "zeta"}, reg.Names())
}
