package main

import (
	"fmt"
	"os"

	"github.com/khacks/phototriage-go/cmd"
	"github.com/khacks/phototriage-go/internal/conf"
	"github.com/khacks/phototriage-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(settings)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
