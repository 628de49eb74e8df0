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
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/triage"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/search"
	"github.com/poiesic/triage/storage"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	sys, err := triage.Open("./triage_db")
	if err != nil {
		panic(err)
	}
	defer sys.Close()

	engine, err := sys.NewEngine()
	if err != nil {
		panic(err)
	}

	text := "earthquake structural collapse"
	if len(os.Args) > 1 {
		text = strings.Join(os.Args[1:], " ")
	}

	ctx := context.Background()
	query := core.Query{
		Text:     text,
		Disaster: core.DisasterOther,
		Location: "anywhere",
		Severity: core.SeverityModerate,
	}

	results, err := engine.Retrieve(ctx, query, search.DefaultWeights(), 5, storage.Filters{})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: [%s] '%s' (%d)[%0.3f vec=%0.3f kw=%0.3f]\n",
			i, hit.Kind, hit.Title, hit.Id, hit.Combined, hit.VectorScore, hit.KeywordScore)
	}
}
