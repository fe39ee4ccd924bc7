package main

import (
	"os"

	"github.com/JonMunkholm/refcheck/cmd/refcheck/commands"
	_ "github.com/JonMunkholm/refcheck/internal/core/kinds" // Register all kinds
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(commands.Execute(version + " (" + commit + ")"))
}
