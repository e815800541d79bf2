// Package main provides the CLI entry point for sheetqueue.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env values override the process environment
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file")
	}

	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(GetExitCode(err))
	}
}
