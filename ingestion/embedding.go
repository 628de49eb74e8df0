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


package ingestion

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/triage/ai"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/storage"
)

// embeddingProcessor generates vectors for stored reference records.
type embeddingProcessor struct {
	repository    storage.ReferenceRepository
	embedder      ai.Embedder
	maxAttempts   int
	retryBaseWait time.Duration
	logger        *slog.Logger
}

func newEmbeddingProcessor(repository storage.ReferenceRepository, embedder ai.Embedder, logger *slog.Logger) *embeddingProcessor {
	return &embeddingProcessor{
		repository:    repository,
		embedder:      embedder,
		maxAttempts:   3,
		retryBaseWait: 500 * time.Millisecond,
		logger:        logger,
	}
}

// process embeds the records with the given IDs and stores the vectors,
// returning how many were embedded. The whole set goes to the provider
// as one batch call, retried with backoff as a unit; a batch that still
// fails leaves every record pending for the next sweep.
func (e *embeddingProcessor) process(ctx context.Context, ids ...core.ID) (int, error) {
	records, err := e.repository.GetRecords(ctx, ids...)
	if err != nil {
		return 0, err
	}

	missing := make([]*core.ReferenceRecord, 0, len(records))
	for _, record := range records {
		if len(record.Vector) == 0 {
			missing = append(missing, record)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	texts := make([]string, len(missing))
	for i, record := range missing {
		texts[i] = embeddingText(record)
	}

	var vectors [][]float32
	err = RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = e.embedder.EmbedTexts(ctx, texts)
		return embedErr
	}, e.maxAttempts, e.retryBaseWait)
	if err != nil {
		e.logger.Warn("batch embedding failed, leaving records pending",
			"count", len(missing), "err", err)
		return 0, nil
	}
	if len(vectors) < len(missing) {
		e.logger.Warn("embedding batch came back short, leaving records pending",
			"want", len(missing), "got", len(vectors))
		return 0, nil
	}

	for i, record := range missing {
		record.Vector = vectors[i]
	}

	if _, err := e.repository.UpdateRecords(ctx, missing...); err != nil {
		return 0, err
	}
	return len(missing), nil
}

// embeddingText is the text actually embedded for a record. Title and
// contents both carry signal; location anchors geographic similarity.
func embeddingText(record *core.ReferenceRecord) string {
	return record.Title + "\n" + record.Contents + "\n" + record.Location
}
