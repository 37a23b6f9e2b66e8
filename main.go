// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// cemu - E&C cassette changer emulator toolkit
//
// Host-side tooling for the E&C bus changer emulator: simulation, capture
// replay and monitoring of the firmware's diagnostic output.

package main

import (
	"os"

	"github.com/golang/glog"

	"github.com/Thermoquad/cemu/cmd"
)

func main() {
	defer glog.Flush()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
