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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/triage"
	"github.com/poiesic/triage/ai"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "triage",
		Usage: "Automated incident response plan generation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "plan",
				Usage:  "Generate a response plan for an incident query",
				Action: planCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "text",
						Aliases:  []string{"t"},
						Usage:    "Incident description",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "disaster",
						Usage: "Disaster type (wildfire, flood, earthquake, cyclone, heatwave, landslide, other)",
						Value: "other",
					},
					&cli.StringFlag{
						Name:     "location",
						Usage:    "Affected location",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "severity",
						Usage:    "Reported severity (low, moderate, high, severe, critical)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "breaker-stats",
						Usage: "Print circuit breaker statistics to stderr after responding",
					},
				}, commonFlags()...),
			},
			{
				Name:   "ingest",
				Usage:  "Ingest reference documents from a JSON lines file",
				Action: ingestCommand,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to JSON lines file, one document per line",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Document kind (incident or protocol)",
						Value: "incident",
					},
				}, commonFlags()...),
			},
			{
				Name:   "process-pending",
				Usage:  "Embed reference documents that have no vector yet",
				Action: processPendingCommand,
				Flags: append([]cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
				}, commonFlags()...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commonFlags are shared by every subcommand: database location and the
// OpenAI-compatible service endpoints.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "generator-model",
			Usage: "Plan generation model name",
			Value: "qwen2.5:3b",
		},
	}
}

func openSystem(c *cli.Context) (*triage.System, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGeneratorModel(c.String("generator-model")),
	)

	sys, err := triage.Open(c.String("db"), triage.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return sys, nil
}

func planCommand(c *cli.Context) error {
	ctx := context.Background()

	disaster, ok := core.ParseDisasterType(c.String("disaster"))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown disaster type %q, treating as other\n", c.String("disaster"))
	}
	severity, ok := core.ParseSeverity(c.String("severity"))
	if !ok {
		return fmt.Errorf("invalid severity %q: must be one of low, moderate, high, severe, critical", c.String("severity"))
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	responder, err := sys.NewResponder(nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create responder: %w", err)
	}

	response, err := responder.Respond(ctx, core.Query{
		Text:     c.String("text"),
		Disaster: disaster,
		Location: c.String("location"),
		Severity: severity,
	})
	if err != nil {
		return fmt.Errorf("plan generation failed: %w", err)
	}

	output, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	fmt.Println(string(output))

	if c.Bool("breaker-stats") {
		stats, err := json.MarshalIndent(responder.BreakerStats(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode breaker stats: %w", err)
		}
		fmt.Fprintln(os.Stderr, string(stats))
	}
	return nil
}

// ingestDocument is the JSON lines wire format for the ingest command.
type ingestDocument struct {
	Title    string            `json:"title"`
	Contents string            `json:"contents"`
	Disaster string            `json:"disaster"`
	Severity string            `json:"severity"`
	Location string            `json:"location"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	kind := strings.ToLower(c.String("kind"))
	if kind != "incident" && kind != "protocol" {
		return fmt.Errorf("invalid kind %q: must be incident or protocol", kind)
	}

	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	var documents []ingestion.Document
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var doc ingestDocument
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", lineNo, err)
		}

		disaster, ok := core.ParseDisasterType(doc.Disaster)
		if !ok && doc.Disaster != "" {
			fmt.Fprintf(os.Stderr, "line %d: unknown disaster type %q, treating as other\n", lineNo, doc.Disaster)
		}
		severity, ok := core.ParseSeverity(doc.Severity)
		if !ok && doc.Severity != "" {
			fmt.Fprintf(os.Stderr, "line %d: unknown severity %q, treating as moderate\n", lineNo, doc.Severity)
		}

		documents = append(documents, ingestion.Document{
			Title:    doc.Title,
			Contents: doc.Contents,
			Disaster: disaster,
			Severity: severity,
			Location: doc.Location,
			Metadata: doc.Metadata,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	if len(documents) == 0 {
		return fmt.Errorf("no documents found in %s", c.String("file"))
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	pipeline, err := sys.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	var added []*core.ReferenceRecord
	if kind == "incident" {
		added, err = pipeline.IngestIncidents(ctx, documents...)
	} else {
		added, err = pipeline.IngestProtocols(ctx, documents...)
	}
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	// Embedding is asynchronous; sweep before exit so the process does
	// not quit with vectors still pending.
	embedded := 0
	for {
		count, err := pipeline.ProcessPending(ctx, 100)
		if err != nil {
			return fmt.Errorf("embedding sweep failed: %w", err)
		}
		if count == 0 {
			break
		}
		embedded += count
	}

	fmt.Fprintf(os.Stderr, "Ingested %d documents (%d embedded during sweep)\n", len(added), embedded)
	return nil
}

func processPendingCommand(c *cli.Context) error {
	ctx := context.Background()

	batchSize := c.Int("batch-size")
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	pipeline, err := sys.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	total := 0
	for {
		count, err := pipeline.ProcessPending(ctx, batchSize)
		if err != nil {
			return fmt.Errorf("embedding sweep failed: %w", err)
		}
		if count == 0 {
			break
		}
		total += count
	}

	fmt.Fprintf(os.Stderr, "Processed %d pending records\n", total)
	return nil
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
