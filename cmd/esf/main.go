// SPDX-License-Identifier: MIT

// Command esf runs eigenvector spatial filtering on joined spreadsheet
// exports and a spatial layer.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "esf:", err)
		os.Exit(1)
	}
}
