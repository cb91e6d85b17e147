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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/poiesic/superior"
	"github.com/poiesic/superior/core"
	"github.com/poiesic/superior/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "superior",
		Usage: "Retrieval-augmented property Q&A backend",
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
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"SUPERIOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for the embedding and chat service",
				EnvVars: []string{"OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "Base URL of an OpenAI-compatible API",
				EnvVars: []string{"OPENAI_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "pg-dsn",
				Usage:   "Postgres connection string",
				EnvVars: []string{"PG_DSN"},
			},
			&cli.StringFlag{
				Name:    "store",
				Usage:   "Document store driver (postgres, badger)",
				EnvVars: []string{"SUPERIOR_STORE"},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Usage:   "BadgerDB directory for the badger store",
				EnvVars: []string{"SUPERIOR_BADGER_PATH"},
			},
			&cli.StringFlag{
				Name:    "metric",
				Usage:   "Nearest-neighbor distance metric (cosine, l2, inner_product)",
				EnvVars: []string{"SUPERIOR_METRIC"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "host",
						Usage:   "Interface to listen on",
						EnvVars: []string{"HOST"},
					},
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "TCP port to listen on",
						EnvVars: []string{"PORT"},
					},
					&cli.StringFlag{
						Name:    "cors-origins",
						Usage:   "Comma-separated origins allowed by CORS (empty allows all)",
						EnvVars: []string{"CORS_ORIGINS"},
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Ingest plain-text files into the document store",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "path",
						Usage:    "Directory of .txt files",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source label for references",
						Value: ingestion.DefaultSource,
					},
					&cli.StringFlag{
						Name:  "pattern",
						Usage: "Glob pattern, relative to the path, selecting files",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep running and ingest files as they change",
					},
				},
			},
			{
				Name:   "ask",
				Usage:  "Answer a single question and print the JSON response",
				Action: askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Question to answer",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "address",
						Usage: "Focus address for live data",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of documents to retrieve",
						Value: core.DefaultK,
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Create the document store schema",
				Action: migrateCommand,
			},
		},
	}
}

// loadConfig builds the configuration from defaults, the optional config
// file and the global flags, in increasing precedence.
func loadConfig(c *cli.Context) (*superior.Config, error) {
	cfg, err := superior.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("openai-api-key") {
		cfg.AI.APIKey = c.String("openai-api-key")
	}
	if c.IsSet("openai-base-url") {
		cfg.AI.BaseURL = c.String("openai-base-url")
	}
	if c.IsSet("pg-dsn") {
		cfg.Store.DSN = c.String("pg-dsn")
	}
	if c.IsSet("store") {
		cfg.Store.Driver = c.String("store")
	}
	if c.IsSet("badger-path") {
		cfg.Store.Path = c.String("badger-path")
	}
	if c.IsSet("metric") {
		cfg.Store.Metric = c.String("metric")
	}
	return cfg, nil
}

func openApp(c *cli.Context) (*superior.App, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return superior.New(cfg)
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("cors-origins") {
		cfg.Server.AllowedOrigins = splitList(c.String("cors-origins"))
	}

	app, err := superior.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv, err := app.NewServer()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(c)
	defer cancel()
	return srv.Serve(ctx)
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("pattern") {
		cfg.Ingest.Pattern = c.String("pattern")
	}

	app, err := superior.New(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	root := c.String("path")
	source := c.String("source")
	ctx, cancel := signalContext(c)
	defer cancel()

	report, err := app.Ingest(ctx, root, source)
	if err != nil {
		return err
	}
	if report.Empty() {
		fmt.Fprintln(c.App.Writer, "No .txt files found to ingest.")
	} else {
		fmt.Fprintf(c.App.Writer, "Ingested %d files from %s\n", len(report.Files), root)
	}

	if !c.Bool("watch") {
		return nil
	}
	slog.Info("watching for changes, press Ctrl+C to stop", "path", root)
	return app.Watch(ctx, root, source)
}

func askCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signalContext(c)
	defer cancel()

	req := core.AskRequest{
		Query:   c.String("query"),
		Address: c.String("address"),
	}
	resp, err := app.Ask(ctx, req.WithK(c.Int("k")))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func migrateCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Migrate(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Schema ready.")
	return nil
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

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
