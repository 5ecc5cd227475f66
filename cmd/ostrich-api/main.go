// Package main is the entry point for ostrich-api.
package main

import (
	"os"

	"github.com/hgm-king/ostrich-api/cmd/ostrich-api/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
