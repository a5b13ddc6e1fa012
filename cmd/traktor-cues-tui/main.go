package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/traktor-cues/internal/config"
	"github.com/handiism/traktor-cues/internal/tui"
)

func main() {
	var (
		configFlag = flag.String("config", config.DefaultPath(), "Path to config file")
		nmlFlag    = flag.String("nml", "", "Path to collection.nml (overrides config)")
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *nmlFlag != "" {
		settings.NMLPath = *nmlFlag
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
