//go:build cuda

package main

import (
	// Registers the "cuda" device backend.
	_ "github.com/pion/framering/pkg/device/cuda"
)
