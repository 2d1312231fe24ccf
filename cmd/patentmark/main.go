// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/patentmark"
	"github.com/poiesic/patentmark/config"
	"github.com/poiesic/patentmark/ingestion"
	"github.com/poiesic/patentmark/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "patentmark",
		Usage: "Flag patents that contain ligand-protein binding data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML or TOML configuration file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "markup",
				Usage:  "Classify every chunk of every document and write checkpoints",
				Action: markupCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "pdf-dir",
						Usage:    "Directory of patent PDF (or .txt) files",
						Required: true,
					},
					checkpointsFlag(),
					&cli.BoolFlag{
						Name:  "resume",
						Usage: "Skip documents whose checkpoint is already complete",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Process at most N documents (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "pdftotext",
						Usage: "Fall back to the pdftotext binary for unreadable PDFs",
					},
				}, llmFlags()...),
			},
			{
				Name:   "extract-binding",
				Usage:  "Extract binding constants from flagged chunks",
				Action: extractBindingCommand,
				Flags:  append([]cli.Flag{checkpointsFlag()}, llmFlags()...),
			},
			{
				Name:   "binding",
				Usage:  "List documents flagged as containing binding data",
				Action: bindingCommand,
				Flags: []cli.Flag{
					checkpointsFlag(),
					&cli.StringFlag{
						Name:  "query",
						Usage: "Only list documents whose flagged chunks contain every word",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Show the most recently persisted documents",
				Action: statusCommand,
				Flags: []cli.Flag{
					checkpointsFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of entries to show (0 for all)",
						Value: 20,
					},
				},
			},
		},
	}
}

func checkpointsFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "checkpoints",
		Aliases:  []string{"d"},
		Usage:    "Workspace directory for checkpoints, results and the run ledger",
		Required: true,
	}
}

// llmFlags override the configuration file when set.
func llmFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "llm-host", Usage: "Chat completion API base URL"},
		&cli.StringFlag{Name: "llm-model", Usage: "Model name"},
		&cli.StringFlag{Name: "api-key", Usage: "API key (defaults to $LLM_API_KEY)"},
		&cli.IntFlag{Name: "max-concurrent-requests", Usage: "Maximum classifier calls in flight"},
		&cli.IntFlag{Name: "max-concurrent-writes", Usage: "Maximum checkpoint writes in flight"},
		&cli.IntFlag{Name: "batch-size", Usage: "Documents scheduled together"},
		&cli.IntFlag{Name: "max-retries", Usage: "Retries after the first attempt of a chunk"},
		&cli.StringFlag{Name: "metrics-file", Usage: "Write prometheus metrics to this file after the run"},
	}
}

// loadConfig reads the --config file (or defaults plus environment) and
// applies command line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
		cfg.ApplyEnv(os.LookupEnv)
	}

	if c.IsSet("llm-host") {
		cfg.LLM.Host = c.String("llm-host")
	}
	if c.IsSet("llm-model") {
		cfg.LLM.Model = c.String("llm-model")
	}
	if c.IsSet("api-key") {
		cfg.LLM.APIKey = c.String("api-key")
	}
	if c.IsSet("max-concurrent-requests") {
		cfg.Concurrency.MaxConcurrentRequests = c.Int("max-concurrent-requests")
	}
	if c.IsSet("max-concurrent-writes") {
		cfg.Concurrency.MaxConcurrentWrites = c.Int("max-concurrent-writes")
	}
	if c.IsSet("batch-size") {
		cfg.Concurrency.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("max-retries") {
		cfg.Retry.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openWorkspace(c *cli.Context, cfg *config.Config) (*patentmark.Workspace, error) {
	ws, err := patentmark.OpenWorkspace(c.String("checkpoints"), patentmark.WithConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	return ws, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

// collectPaths lists PDF and text files in dir in name order.
func collectPaths(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".pdf", ".txt":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	slices.Sort(paths)
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, nil
}

func markupCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	paths, err := collectPaths(c.String("pdf-dir"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	ws, err := openWorkspace(c, cfg)
	if err != nil {
		return err
	}
	defer ws.Close()

	loader, err := ws.NewDocumentLoader(c.Bool("pdftotext"))
	if err != nil {
		return err
	}
	pipeline, err := ws.NewMarkupPipeline(
		ingestion.WithSkipPersisted(c.Bool("resume")),
		ingestion.WithProgress(os.Stderr),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Documents: %d\n", len(paths))
	fmt.Fprintf(os.Stderr, "Checkpoints: %s\n", ws.Root())
	fmt.Fprintf(os.Stderr, "LLM host: %s\n", cfg.AIConfig().Host)
	fmt.Fprintf(os.Stderr, "LLM model: %s\n", cfg.LLM.Model)
	fmt.Fprintln(os.Stderr)

	ctx, stop := signalContext(c)
	defer stop()

	report, runErr := pipeline.RunPaths(ctx, loader, paths)
	if report != nil {
		printRunReport(c.App.Writer, report)
	}
	writeMetrics(ws, cfg)
	if runErr != nil {
		return fmt.Errorf("markup failed: %w", runErr)
	}
	return nil
}

func extractBindingCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	ws, err := openWorkspace(c, cfg)
	if err != nil {
		return err
	}
	defer ws.Close()

	ctx, stop := signalContext(c)
	defer stop()

	finder, err := ws.NewFinder()
	if err != nil {
		return err
	}
	hits, err := finder.WithBindingInfo(ctx)
	if err != nil {
		return err
	}
	names := make([]string, len(hits))
	for i, hit := range hits {
		names[i] = hit.Name
	}

	stage, err := ws.NewBindingStage()
	if err != nil {
		return err
	}
	report, runErr := stage.Run(ctx, names)
	if report != nil {
		fmt.Fprintf(c.App.Writer, "Documents: %d\nChunks: %d\nRelevant: %d\nFailed: %d\nWritten: %d\nIncomplete: %d\n",
			report.Documents, report.Chunks, report.Relevant, report.Failed, report.Written, report.Incomplete)
	}
	writeMetrics(ws, cfg)
	if runErr != nil {
		return fmt.Errorf("binding extraction failed: %w", runErr)
	}
	return nil
}

func bindingCommand(c *cli.Context) error {
	ws, err := openWorkspace(c, config.Default())
	if err != nil {
		return err
	}
	defer ws.Close()

	finder, err := ws.NewFinder()
	if err != nil {
		return err
	}
	var hits []search.Hit
	if query := c.String("query"); query != "" {
		hits, err = finder.Matching(c.Context, query)
	} else {
		hits, err = finder.WithBindingInfo(c.Context)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOUNTRY\tFLAGGED CHUNKS\tCOMPOUNDS\tPATH")
	for _, hit := range hits {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			hit.Name, hit.Country, hit.FlaggedChunks, strings.Join(hit.Compounds, ","), hit.Path)
	}
	return w.Flush()
}

func statusCommand(c *cli.Context) error {
	ws, err := openWorkspace(c, config.Default())
	if err != nil {
		return err
	}
	defer ws.Close()

	entries, err := ws.Ledger().List(c.Context)
	if err != nil {
		return err
	}
	if limit := c.Int("limit"); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tRUN\tPERSISTED\tBINDING\tTOO SHORT\tCHUNKS\tFAILED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%d\t%d\n",
			e.Name, e.RunID, e.PersistedAt.Local().Format(time.DateTime),
			e.HasBindingInfo, e.TooShort, e.Chunks, e.FailedChunks)
	}
	return w.Flush()
}

func printRunReport(w io.Writer, report *ingestion.RunReport) {
	totals := report.Totals()
	fmt.Fprintf(w, "Run: %s\n", report.RunID)
	fmt.Fprintf(w, "Documents: %d\n", totals.Documents)
	fmt.Fprintf(w, "Too short: %d\n", totals.SkippedTooShort)
	fmt.Fprintf(w, "Skipped (already persisted): %d\n", totals.SkippedPersisted)
	fmt.Fprintf(w, "Interrupted: %d\n", totals.Canceled)
	fmt.Fprintf(w, "Persisted: %d\n", totals.Persisted)
	fmt.Fprintf(w, "With binding info: %d\n", report.WithBindingInfo())
	fmt.Fprintf(w, "Chunks succeeded: %d\n", totals.ChunksSucceeded)
	fmt.Fprintf(w, "Chunks failed: %d\n", totals.ChunksFailed)
	fmt.Fprintf(w, "Elapsed: %s\n", report.Elapsed.Round(time.Millisecond))
}

func writeMetrics(ws *patentmark.Workspace, cfg *config.Config) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := ws.Metrics().WriteTextfile(cfg.MetricsFile); err != nil {
		slog.Error("failed to write metrics", "path", cfg.MetricsFile, "err", err)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
