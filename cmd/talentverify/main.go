// Package main provides the talentverify binary entry point, a command
// line client for the Talent Verify employment verification API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", friendly(err))
		os.Exit(1)
	}
}
