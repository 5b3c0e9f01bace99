package main

import (
	"context"
	"os"

	"github.com/fatih/color"

	"github.com/ordinaryYT/jacweb1/internal/cmd"
	"github.com/ordinaryYT/jacweb1/pkg/config"
	"github.com/ordinaryYT/jacweb1/pkg/logging"
)

func main() {
	// Load environment variables
	config.LoadEnv(logging.NewLoggerWithService("legendboard"))

	if err := cmd.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
