package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time version info, injected via ldflags:
//
//	go build -ldflags "-X main.version=... -X main.commit=... -X main.buildTime=..."
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "tokweave",
	Short: "tokweave: DTCG design token composition and resolution engine",
	Long: `tokweave composes manifest-driven design token builds, resolves
$ref and {alias} references across files, converts between reference
dialects, and validates the result against a JSON Schema plus structural
reference-integrity checks.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		c := commit
		if len(c) > 7 {
			c = c[:7]
		}
		fmt.Printf("tokweave version %s (%s) built %s\n", version, c, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
