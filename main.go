package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/YLivay/csvmend/batch"
	"github.com/YLivay/csvmend/config"
	"github.com/YLivay/csvmend/log"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	progressGap = time.Second
)

func main() {
	ctx, cancelCtx := context.WithCancel(context.Background())

	cleanupOsSignals := setupOsSignals(ctx, cancelCtx)
	code := run(ctx, os.Args[1:], os.Stdout, log.Default(), term.IsTerminal(int(os.Stderr.Fd())))
	cleanupOsSignals()

	os.Exit(code)
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: csvmend [flags] -in DIR -out DIR\n\n")
		fmt.Fprintf(out, "Rejoins CSV records that were broken over several lines by stray newlines.\n")
		fmt.Fprintf(out, "Every input file with a matching extension is written, mended, to a\n")
		fmt.Fprintf(out, "same-named file in the output directory.\n\nFlags:\n")
		fs.PrintDefaults()
	}
}

// run is main without the process-global bits, so it can be tested. Logs go to
// logger, the example config goes to stdout.
func run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger, interactive bool) int {
	fs := flag.NewFlagSet("csvmend", flag.ContinueOnError)
	fs.SetOutput(logger.Writer())
	fs.Usage = usage(fs)

	defaults := config.Default()
	var (
		configPath    = fs.String("config", "", "YAML config `file`; flags override its values")
		exampleConfig = fs.Bool("example-config", false, "print a sample config file and exit")
		inputDir      = fs.String("in", "", "input `directory`")
		outputDir     = fs.String("out", "", "output `directory`")
		delim         = fs.String("delim", defaults.Delimiter, "field delimiter: a `char`acter, or an escape such as \\t, \\x1f or 0x1f")
		fields        = fs.Int("fields", defaults.ExpectedFields, "expected number of fields per record")
		exts          = fs.String("ext", strings.Join(defaults.Extensions, ","), "comma-separated `extensions` of the files to process")
		skip          = fs.String("skip", strings.Join(defaults.Skip, ","), "comma-separated file `names` to never process")
		encoding      = fs.String("encoding", defaults.Encoding, "input `charset`: utf-8, latin1, windows-1252, windows-1251 or auto")
		flush         = fs.Int("flush", defaults.FlushInterval, "flush output every `n` records")
		maxLine       = fs.Int("max-line", defaults.MaxLineSize, "maximum length of a physical line in `bytes`")
		retry         = fs.Bool("retry", false, "only process the files the last run into -out failed on")
		verbose       = fs.Bool("v", false, "log debug messages")
		quiet         = fs.Bool("q", false, "only log warnings and errors")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		logger.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		return exitUsage
	}

	if *exampleConfig {
		fmt.Fprint(stdout, config.Example())
		return exitOK
	}

	cfg := defaults
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Errorf("%v", err)
			return exitUsage
		}
		cfg = loaded
	}

	// Only flags given explicitly override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.InputDir = *inputDir
		case "out":
			cfg.OutputDir = *outputDir
		case "delim":
			cfg.Delimiter = *delim
		case "fields":
			cfg.ExpectedFields = *fields
		case "ext":
			cfg.Extensions = splitList(*exts)
		case "skip":
			cfg.Skip = splitList(*skip)
		case "encoding":
			cfg.Encoding = *encoding
		case "flush":
			cfg.FlushInterval = *flush
		case "max-line":
			cfg.MaxLineSize = *maxLine
		case "retry":
			cfg.Retry = *retry
		}
	})

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Errorf("config: %v", err)
		return exitUsage
	}
	switch {
	case *verbose:
		level = log.LevelDebug
	case *quiet:
		level = log.LevelWarn
	}
	logger.SetLevel(level)

	driver, err := batch.New(cfg, logger)
	if err != nil {
		logger.Errorf("%v", err)
		return exitUsage
	}

	// Progress is noise in captured logs, so it only shows by default when
	// someone is watching the terminal.
	progressLevel := log.LevelDebug
	if interactive {
		progressLevel = log.LevelInfo
	}
	driver.OnProgress = newProgressLogger(logger, progressLevel, progressGap).Report

	report, err := driver.Run(ctx)
	summarize(logger, report)
	if err != nil {
		logger.Errorf("%v", err)
		return exitUsage
	}
	if len(report.Failed()) > 0 {
		return exitFailed
	}
	return exitOK
}

func summarize(logger *log.Logger, report *batch.Report) {
	totals := report.Totals()
	failed := report.Failed()

	logger.Infof("done: %d file(s), %d lines -> %d records (%d merged), %d failed",
		len(report.Results), totals.Lines, totals.Records, totals.Merged, len(failed))
	for _, res := range failed {
		logger.Warnf("needs attention: %s (%s)", res.Name, res.Status)
	}
	if len(failed) > 0 {
		logger.Warnf("rerun with -retry once they are fixed; the list is in %s", batch.ManifestName)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func setupOsSignals(ctx context.Context, cancelCtx context.CancelFunc) (cleanup func()) {
	// Catch ctrl+c signal and make it close the context instead of immediately
	// exiting. This lets the current file flush what it has written.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	cleanup = func() {
		signal.Stop(signalChan)
		cancelCtx()
	}

	go func() {
		select {
		case <-signalChan:
			log.Warnf("interrupted, stopping")
			cancelCtx()
		case <-ctx.Done():
		}
	}()

	return cleanup
}
