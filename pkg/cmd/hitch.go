// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"

	cmdrun "carvel.dev/hitch/pkg/cmd/run"
	"carvel.dev/hitch/pkg/version"
)

type HitchOptions struct{}

func NewDefaultHitchOptions() *HitchOptions {
	return &HitchOptions{}
}

func NewDefaultHitchCmd() *cobra.Command {
	return NewHitchCmd(NewDefaultHitchOptions())
}

func NewHitchCmd(o *HitchOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hitch",
		Version: version.Version,
		Short:   "hitch evaluates declarative hook documents",
		Long: `hitch walks a YAML/JSON/TOML document, dispatching arrow-suffixed keys
as hook calls and assembling their results into an output document.`,
	}

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))
	cmd.AddCommand(cmdrun.NewCmd(cmdrun.NewOptions()))

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))

	return cmd
}
