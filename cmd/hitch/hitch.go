// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	uierrs "github.com/cppforlife/go-cli-ui/errors"

	"carvel.dev/hitch/pkg/cmd"
)

func main() {
	command := cmd.NewDefaultHitchCmd()

	err := command.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hitch: Error: %s\n", uierrs.NewMultiLineError(err))
		os.Exit(1)
	}
}
