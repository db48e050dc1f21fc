// Command mailprobe checks email addresses against their domain's mail
// servers and prints one JSON result per address.
//
//	mailprobe [-config file.yaml] [-from addr] [-workers n] [-debug] address...
//
// The exit code is 0 when every address was accepted, 1 when any address was
// rejected or could not be verified, and 2 on usage or configuration errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/optimode/mailprobe"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mailprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	from := fs.String("from", "", "sender address for MAIL FROM (overrides the config file)")
	workers := fs.Int("workers", 0, "concurrent verifications (overrides the config file)")
	debug := fs.Bool("debug", false, "log every verification step")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(stderr, "usage: mailprobe [flags] address...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if *from != "" {
		cfg.SenderAddress = *from
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	logger, err := newLogger(*debug)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	v, closeFn, err := cfg.verifier(logger)
	defer closeFn()
	if err != nil {
		logger.Error("configure verifier", zap.Error(err))
		return exitUsage
	}

	results, err := v.VerifyMany(ctx, fs.Args(), mailprobe.ConcurrencyOptions{Workers: cfg.Workers})
	if errors.Is(err, mailprobe.ErrInvalidConfig) {
		logger.Error("configure verifier", zap.Error(err))
		return exitUsage
	}

	code := exitOK
	enc := json.NewEncoder(stdout)
	for _, res := range results {
		if res.Email == "" && res.Err == "" && res.Verdict == mailprobe.VerdictUnknown {
			// not reached before ctx ended
			continue
		}
		if err := enc.Encode(res); err != nil {
			logger.Error("write result", zap.Error(err))
			return exitFailed
		}
		if !res.Accepted() {
			code = exitFailed
		}
	}
	if err != nil {
		logger.Warn("verification interrupted", zap.Error(err))
		return exitFailed
	}
	return code
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
