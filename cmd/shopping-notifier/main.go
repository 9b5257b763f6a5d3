// Package main is the entry point for the shopping-notifier.
package main

import (
	"os"

	"github.com/donaldgifford/shopping-notifier/cmd/shopping-notifier/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
