package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/smegmarip/adaptive-face/internal/config"
	"github.com/smegmarip/adaptive-face/pkg/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file")
	single := flag.Bool("single", false, "expect a single subject and resolve down to one face")
	status := flag.Bool("status", false, "print pipeline status and exit")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if *verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	p := pipeline.New(cfg, logger)
	defer p.Close()

	if *status {
		printJSON(p.Status())
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: adaptive-face [flags] <image>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	result, err := p.DetectFile(flag.Arg(0), *single)
	if err != nil {
		logger.Warnf("detection degraded: %v", err)
	}
	printJSON(result)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		os.Exit(1)
	}
}
