// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package run

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cmdcore "carvel.dev/hitch/pkg/cmd/core"
	"carvel.dev/hitch/pkg/document"
	"carvel.dev/hitch/pkg/hooks"
	"carvel.dev/hitch/pkg/orderedmap"
	"carvel.dev/hitch/pkg/parser"
	"carvel.dev/hitch/pkg/providers"
)

type Options struct {
	NoInput      bool
	Debug        bool
	OutputFormat string
	Existing     []string

	args []string
}

func NewOptions() *Options {
	return &Options{OutputFormat: "yaml"}
}

func NewCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE [HOOK [ARGS...]]",
		Short: "Evaluate a hitch document and print its output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			o.args = args
			return o.Run()
		},
	}
	cmd.Flags().BoolVarP(&o.NoInput, "no-input", "n", false, "Resolve prompts to their defaults instead of asking")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	cmd.Flags().StringVarP(&o.OutputFormat, "output", "o", "yaml", "Output format (yaml, json or toml)")
	cmd.Flags().StringArrayVarP(&o.Existing, "existing", "e", nil, "Seed existing data as key=value (can be repeated)")
	return cmd
}

func (o *Options) Run() error {
	ui := cmdcore.NewInteractiveUI(o.Debug)
	defer ui.Flush()

	t1 := time.Now()
	defer func() {
		ui.Debugf("total: %s\n", time.Now().Sub(t1))
	}()

	file, err := document.Load(o.args[0])
	if err != nil {
		return err
	}

	existing, err := o.existingData()
	if err != nil {
		return err
	}

	registry := hooks.NewRegistry()
	providers.RegisterAll(registry)

	ui.Debugf("registry %s: %d hooks\n", registry.ID(), len(registry.Names()))

	callingDir, err := os.Getwd()
	if err != nil {
		return err
	}

	ctx := parser.NewContext(parser.Opts{
		Registry:         registry,
		UI:               ui,
		NoInput:          o.NoInput,
		CallingDirectory: callingDir,
		CallingFile:      o.args[0],
		File:             file,
		Existing:         existing,
	})

	result, err := ctx.Run()
	if err != nil {
		return err
	}

	// trailing args invoke one of the file's declared hooks
	if len(o.args) > 1 {
		result, err = ctx.DispatchArgs(o.args[1:])
		if err != nil {
			return err
		}
	}

	out, err := document.Print(result, document.OutputFormat(o.OutputFormat))
	if err != nil {
		return err
	}

	ui.Printf("%s", out)
	return nil
}

// existingData parses repeated -e key=value flags into the run's lowest
// precedence data partition. Dotted keys nest; values coerce like compact
// call string tokens.
func (o *Options) existingData() (*orderedmap.Map, error) {
	result := orderedmap.NewMap()

	for _, kv := range o.Existing {
		pieces := strings.SplitN(kv, "=", 2)
		if len(pieces) != 2 {
			return nil, fmt.Errorf("Expected key=value, but got '%s'", kv)
		}

		target := result
		keys := strings.Split(pieces[0], ".")
		for _, key := range keys[:len(keys)-1] {
			next, found := target.Get(key)
			nextMap, ok := next.(*orderedmap.Map)
			if !found || !ok {
				nextMap = orderedmap.NewMap()
				target.Set(key, nextMap)
			}
			target = nextMap
		}
		target.Set(keys[len(keys)-1], hooks.CoerceLiteral(pieces[1]))
	}

	return result, nil
}
