// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
