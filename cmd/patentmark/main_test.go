package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/patentmark"
	"github.com/poiesic/patentmark/chunker"
	"github.com/poiesic/patentmark/config"
	"github.com/poiesic/patentmark/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvAPIKey, config.EnvBaseURL, config.EnvModel} {
		t.Setenv(key, "")
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"patentmark"}, args...))
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	tests := []struct {
		level   string
		enabled slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			app := &cli.App{
				Flags:  []cli.Flag{&cli.StringFlag{Name: "log-level", Value: "info"}},
				Before: setupLogger,
				Action: func(*cli.Context) error { return nil },
			}
			err := app.Run([]string{"patentmark", "--log-level", tt.level})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, slog.Default().Enabled(context.Background(), tt.enabled))
			assert.False(t, slog.Default().Enabled(context.Background(), tt.enabled-1))
		})
	}
}

func TestCollectPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"WO3.pdf", "US1.txt", "EP2.PDF", "notes.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755))

	paths, err := collectPaths(dir, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "EP2.PDF"),
		filepath.Join(dir, "US1.txt"),
		filepath.Join(dir, "WO3.pdf"),
	}, paths)

	paths, err = collectPaths(dir, 2)
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	_, err = collectPaths(filepath.Join(dir, "missing"), 0)
	assert.Error(t, err)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)

	var got *config.Config
	run := func(args ...string) error {
		app := &cli.App{
			Flags: append([]cli.Flag{&cli.StringFlag{Name: "config"}}, llmFlags()...),
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				got = cfg
				return err
			},
		}
		return app.Run(append([]string{"patentmark"}, args...))
	}

	t.Run("defaults", func(t *testing.T) {
		require.NoError(t, run())
		assert.Equal(t, config.Default().Concurrency, got.Concurrency)
	})

	t.Run("flags override", func(t *testing.T) {
		err := run(
			"--llm-host", "http://llm:8000",
			"--llm-model", "m",
			"--max-concurrent-requests", "7",
			"--max-concurrent-writes", "2",
			"--batch-size", "4",
			"--max-retries", "1",
			"--metrics-file", "/tmp/m.prom",
		)
		require.NoError(t, err)
		assert.Equal(t, "http://llm:8000", got.LLM.Host)
		assert.Equal(t, "m", got.LLM.Model)
		assert.Equal(t, 7, got.Concurrency.MaxConcurrentRequests)
		assert.Equal(t, 2, got.Concurrency.MaxConcurrentWrites)
		assert.Equal(t, 4, got.Concurrency.BatchSize)
		assert.Equal(t, 1, got.Retry.MaxRetries)
		assert.Equal(t, "/tmp/m.prom", got.MetricsFile)
	})

	t.Run("file then flags", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "patentmark.yaml")
		require.NoError(t, os.WriteFile(path, []byte("concurrency:\n  batch_size: 9\n  max_concurrent_requests: 3\n"), 0o644))

		require.NoError(t, run("--config", path, "--max-concurrent-requests", "5"))
		assert.Equal(t, 9, got.Concurrency.BatchSize)
		assert.Equal(t, 5, got.Concurrency.MaxConcurrentRequests)
	})

	t.Run("invalid override", func(t *testing.T) {
		err := run("--batch-size", "0")
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestCommandsRequireCheckpoints(t *testing.T) {
	for _, cmd := range []string{"markup", "extract-binding", "binding", "status"} {
		t.Run(cmd, func(t *testing.T) {
			_, err := runApp(t, cmd)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "checkpoints")
		})
	}
}

// seedWorkspace persists one flagged and one clean document.
func seedWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	ws, err := patentmark.OpenWorkspace(root)
	require.NoError(t, err)
	defer ws.Close()

	ctx := context.Background()
	params := chunker.Params{WindowSize: 100, NumWindowsHint: 1, MinLength: 100}
	for _, name := range []string{"US1", "EP2"} {
		text := "Ki of the compound for the dopamine receptor. " + strings.Repeat("z", 54)
		doc, err := core.NewDocument(name, name[:2], "/patents/"+name+".pdf", text, 1, params)
		require.NoError(t, err)
		if name == "US1" {
			doc.Chunks[0].HasBindingInfo = true
			doc.Chunks[0].Compounds = []string{"haloperidol"}
		}
		doc.Aggregate()
		require.NoError(t, ws.Store().Put(ctx, doc))

		entry := core.NewLedgerEntry("run-1", doc)
		entry.PersistedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, ws.Ledger().Record(ctx, entry))
	}
	return root
}

func TestBindingCommand(t *testing.T) {
	root := seedWorkspace(t)

	out, err := runApp(t, "binding", "--checkpoints", root)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "US1")
	assert.Contains(t, lines[1], "haloperidol")

	out, err = runApp(t, "binding", "--checkpoints", root, "--query", "serotonin")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)
}

func TestStatusCommand(t *testing.T) {
	root := seedWorkspace(t)

	out, err := runApp(t, "status", "--checkpoints", root)
	require.NoError(t, err)
	assert.Contains(t, out, "US1")
	assert.Contains(t, out, "EP2")
	assert.Contains(t, out, "run-1")

	out, err = runApp(t, "status", "--checkpoints", root, "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}
