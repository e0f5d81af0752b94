// Package main is the entry point for the statusctl CLI.
// The CLI is the terminal tool for submitting jobs and following their status.
package main

import (
	"os"

	"statusboard/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
