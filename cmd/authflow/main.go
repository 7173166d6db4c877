package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"authflow/internal/client"
	"authflow/internal/config"
	"authflow/internal/flow"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	baseURL := flag.String("base-url", cfg.Target.BaseURL, "root of the /user resource under test")
	timeout := flag.Duration("timeout", cfg.Client.Timeout, "per-request timeout (0 disables)")
	strict := flag.Bool("strict", false, "exit non-zero when any check fails or the run stops early")
	verbose := flag.Bool("v", false, "log a run summary")
	flag.Parse()

	if !*verbose {
		logger.SetLevel(logrus.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := client.New(*baseURL, client.WithTimeout(*timeout))
	if err != nil {
		logger.Fatalf("build client: %v", err)
	}

	report, err := flow.NewTester(api, os.Stdout).Run(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnreachable) {
			logger.Debugf("connection failure: %v", err)
			fmt.Printf("Error: Could not connect to server. Make sure '%s' is running!\n", cfg.Target.StartCommand)
			return
		}
		logger.Fatalf("auth flow: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"username":   report.Credentials.Username,
		"steps":      len(report.Steps),
		"stopped_at": report.StoppedAt,
		"errors":     len(report.Errors()),
	}).Info("auth flow finished")

	if *strict && !report.Passed() {
		os.Exit(1)
	}
}
