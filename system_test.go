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


package triage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/triage/ai/mock"
	"github.com/poiesic/triage/core"
	"github.com/poiesic/triage/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("create new system", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "triage_db")
		sys, err := Open(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, sys)
		defer sys.Close()

		// Verify components are initialized
		assert.NotNil(t, sys.ReferenceRepository())
		assert.NotNil(t, sys.CacheStore())
		assert.NotNil(t, sys.backend)
		assert.NotNil(t, sys.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to open at a file path instead of a directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		sys, err := Open(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, sys)
	})
}

func TestSystem_Close(t *testing.T) {
	sys, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, sys)

	err = sys.Close()
	assert.NoError(t, err)
}

func TestSystem_FactoryMethods(t *testing.T) {
	sys, err := Open(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NotNil(t, sys)
	defer sys.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := sys.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create engine", func(t *testing.T) {
		engine, err := sys.NewEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})

	t.Run("can create responder", func(t *testing.T) {
		responder, err := sys.NewResponder(nil, nil)
		require.NoError(t, err)
		require.NotNil(t, responder)
	})
}

func TestSystem_EndToEnd(t *testing.T) {
	sys, err := Open(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer sys.Close()

	ctx := context.Background()

	pipeline, err := sys.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.IngestProtocols(ctx, ingestion.Document{
		Title:    "Earthquake response protocol",
		Contents: "Conduct rapid structural assessments and establish triage points near collapse sites.",
		Disaster: core.DisasterEarthquake,
		Severity: core.SeverityHigh,
		Location: "San Francisco",
	})
	require.NoError(t, err)

	responder, err := sys.NewResponder(nil, nil)
	require.NoError(t, err)

	response, err := responder.Respond(ctx, core.Query{
		Text:     "Major earthquake has collapsed buildings downtown",
		Disaster: core.DisasterEarthquake,
		Location: "San Francisco",
		Severity: core.SeverityHigh,
	})
	require.NoError(t, err)
	require.NotNil(t, response.Plan)
	assert.NotEmpty(t, response.RequestID)
	assert.NoError(t, core.ValidatePlan(response.Plan))
}
