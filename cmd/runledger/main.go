// Package main provides the entry point for the runledger CLI tool.
package main

import (
	"github.com/runledger/runledger/cmd/runledger/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
