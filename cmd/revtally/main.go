// Package main provides the revtally CLI entrypoint.
//
// revtally scans a decompressed MediaWiki XML export on stdin (or a file)
// and prints one summary line per qualifying page or batch of pages:
//
//	zcat pages-meta-history.xml.gz | revtally all bytes title 5
//
// Exit codes:
//   - 0: scan completed (including empty input)
//   - 1: run failure (input, output, or config error)
//   - 2: usage error (bad token or flag, reported before any input is read)
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/wikistats/revtally/cli/args"
	"github.com/wikistats/revtally/cli/config"
	"github.com/wikistats/revtally/cli/input"
	"github.com/wikistats/revtally/emit"
	"github.com/wikistats/revtally/iox"
	"github.com/wikistats/revtally/log"
	"github.com/wikistats/revtally/metrics"
	"github.com/wikistats/revtally/scan"
)

// version is the canonical project version.
const version = "1.0.0"

// commit is set via ldflags at build time.
var commit = "unknown"

const (
	exitOK         = 0
	exitRunFailure = 1
	exitUsage      = 2
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(exitRunFailure)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:            "revtally",
		Usage:           "tally revisions per page from a MediaWiki XML export stream",
		ArgsUsage:       "[all] [bytes] [maxrevlen] [title] [batch <n>] [concise] [<cutoff>]",
		Version:         fmt.Sprintf("%s (commit: %s)", version, commit),
		ExitErrHandler:  exitErrHandler,
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML config file supplying token defaults",
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "read the export from `PATH` instead of stdin",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "progress bar on stderr while scanning a file (TTY only)",
			},
			&cli.StringFlag{
				Name:  "records",
				Usage: "also append binary summary records to `PATH`",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "stderr diagnostics level: debug, info, warn, error",
				Value: log.DefaultLevel,
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	defaults, logLevel, err := loadDefaults(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("revtally: %v", err), exitRunFailure)
	}
	opts, err := args.Parse(defaults, c.Args().Slice())
	if err != nil {
		return cli.Exit(fmt.Sprintf("revtally: %v\n%s", err, args.Usage), exitUsage)
	}
	if c.IsSet("log-level") || logLevel == "" {
		logLevel = c.String("log-level")
	}
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return cli.Exit(fmt.Sprintf("revtally: %v\n%s", err, args.Usage), exitUsage)
	}

	src, err := input.Open(c.String("input"), c.Bool("progress"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("revtally: %v", err), exitRunFailure)
	}
	defer iox.DiscardClose(src)

	logger := log.New(lvl).WithInput(src.Name)
	defer iox.DiscardErr(logger.Sync)

	scanCfg := scan.Config{
		AllNamespaces: opts.All,
		Cutoff:        opts.Cutoff,
		BatchSize:     opts.Batch,
	}
	collector := metrics.NewCollector(src.Name, scanCfg.Mode())

	sink, err := buildSink(c.String("records"), opts, collector)
	if err != nil {
		return cli.Exit(fmt.Sprintf("revtally: %v", err), exitRunFailure)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scanner := scan.New(scanCfg, sink,
		scan.WithCollector(collector),
		scan.WithLogger(logger))

	runErr := scanner.Run(ctx, src.Reader)
	closeErr := sink.Close()

	if err := multierr.Append(runErr, closeErr); err != nil {
		logger.Error("scan failed", map[string]any{"error": err.Error()})
		return cli.Exit(fmt.Sprintf("revtally: %v", err), exitRunFailure)
	}

	snap := collector.Snapshot()
	logger.Info("scan complete", map[string]any{
		"lines_scanned":     snap.LinesScanned,
		"pages_seen":        snap.PagesSeen,
		"pages_qualified":   snap.PagesQualified,
		"pages_emitted":     snap.PagesEmitted,
		"batches_emitted":   snap.BatchesEmitted,
		"revisions_tallied": snap.RevisionsTallied,
		"bytes_tallied":     snap.BytesTallied,
		"bytelen_defaults":  snap.ByteLenDefaults,
		"mode":              snap.Mode,
	})
	return nil
}

// loadDefaults resolves config-file defaults for the token grammar and the
// log level. No config flag means built-in defaults.
func loadDefaults(path string) (args.Options, string, error) {
	if path == "" {
		return args.Options{}, "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return args.Options{}, "", err
	}
	opts := args.Options{
		All:       cfg.Scan.All,
		Bytes:     cfg.Output.Bytes,
		MaxRevLen: cfg.Output.MaxRevLen,
		Title:     cfg.Output.Title,
		Concise:   cfg.Output.Concise,
		Batch:     cfg.Scan.Batch,
		Cutoff:    cfg.Scan.Cutoff,
	}
	return opts, cfg.Log.Level, nil
}

// buildSink assembles the emission pipeline: formatted lines on stdout,
// optionally duplicated into an appended records file, everything counted
// through the collector.
func buildSink(recordsPath string, opts args.Options, collector *metrics.Collector) (emit.Sink, error) {
	fields := emit.Fields{
		PageID:    opts.All,
		Bytes:     opts.Bytes,
		MaxRevLen: opts.MaxRevLen,
		Title:     opts.Title,
	}
	var sink emit.Sink = emit.NewLineSink(os.Stdout, emit.NewFormatter(fields, opts.Concise))

	if recordsPath != "" {
		f, err := os.OpenFile(recordsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open records file %q: %w", recordsPath, err)
		}
		sink = emit.NewMultiSink(sink, emit.NewRecordWriter(f))
	}
	return emit.NewInstrumentedSink(sink, collector), nil
}

// exitErrHandler preserves exit codes from cli.Exit(), so usage errors
// terminate with 2 and run failures with 1.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitRunFailure)
}
