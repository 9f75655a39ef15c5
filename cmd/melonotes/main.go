// Package main is the entry point for the melonotes server.
package main

import (
	"os"

	"github.com/ErkanEron/melonotes/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
