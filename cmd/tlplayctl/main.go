// Package main is the entry point for the tlplayctl application.
package main

import (
	"os"

	"github.com/timelineio/tlplay/cmd/tlplayctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
