// Package main implements the ccm CLI.
// It provides commands for disassembling compiled code objects, inspecting
// their control-flow graphs, and computing cyclomatic-complexity measures.
package main

import (
	"os"

	"github.com/ccm-go/ccm/cmd/ccm/commands"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`ccm version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
