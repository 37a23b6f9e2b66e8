// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

import "errors"

var (
	ErrTimeout      = errors.New("bus not silent within retry bound")
	ErrInvalidFrame = errors.New("frame length exceeds 32 bits")
)
