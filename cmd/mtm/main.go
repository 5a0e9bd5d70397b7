package main

import (
	"os"

	"github.com/wonny/mtm-engine/cmd/mtm/commands"
)

// main is the entry point for the MTM CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/mtm [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
