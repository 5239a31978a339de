// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package version

// Version is the build version of hitch. Set via ldflags on release builds.
var Version = "0.1.0"
