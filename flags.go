package main

import (
	"flag"
	"fmt"
	"os"
)

type options struct {
	configPath string
	tui        bool
	debug      bool
	logLevel   string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to a YAML config file (default: $NEXUS_CONFIG or ./nexus.yaml)")
	flag.BoolVar(&o.tui, "tui", false, "run the particle backdrop in the terminal instead of a window")
	flag.BoolVar(&o.debug, "debug", false, "debug logging with caller information")
	flag.StringVar(&o.logLevel, "log-level", "", "override logging.level")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nNeural Nexus media recommendation client.\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	return o
}
