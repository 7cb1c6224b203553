package transcript

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
)

func sampleRecords() []interview.Record {
	session := interview.Session{ID: "s-1", CandidateName: "Al"}
	turn := interview.NewScenarioTurn("S1", "Q1")
	answered := turn
	answered.Response = "I would talk to them."
	return []interview.Record{
		interview.ScenarioRecord(session, "Integrity", turn),
		interview.ResponseRecord(session, "Integrity", answered, interview.Satisfied, "clear"),
		interview.ScoreRecord(session, "Integrity", 8),
	}
}

func TestFileRecorderAppendsJSONLinesInOrder(t *testing.T) {
	rec, err := NewFileRecorder(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)

	target := rec.NewTarget("s-1", "Al Smith")
	assert.True(t, strings.HasSuffix(target, "_Al-Smith_interview.jsonl"), target)

	for _, r := range sampleRecords() {
		require.NoError(t, rec.Append(context.Background(), target, r))
	}

	f, err := os.Open(rec.Path(target))
	require.NoError(t, err)
	defer f.Close()

	var types []interview.RecordType
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var got interview.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
		types = append(types, got.Type)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []interview.RecordType{interview.RecordScenario, interview.RecordResponse, interview.RecordScore}, types)
}

func TestFileRecorderTargetsAreDistinct(t *testing.T) {
	rec, err := NewFileRecorder(t.TempDir())
	require.NoError(t, err)

	assert.NotEqual(t, rec.NewTarget("a", "Al"), rec.NewTarget("b", "Al"))
	assert.True(t, strings.HasSuffix(rec.NewTarget("c", "  "), "_candidate_interview.jsonl"))
}

func TestSQLiteRecorderRoundTrip(t *testing.T) {
	rec, err := OpenSQLite(filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	defer rec.Close()

	ctx := context.Background()
	target := rec.NewTarget("s-1", "Al")
	for _, r := range sampleRecords() {
		require.NoError(t, rec.Append(ctx, target, r))
	}

	entries, err := rec.Entries(ctx, target)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, interview.RecordScore, entries[2].Type)
	require.NotNil(t, entries[2].Score)
	assert.Equal(t, 8.0, *entries[2].Score)
}

func TestMultiAttemptsEveryRecorder(t *testing.T) {
	failing := NewMemoryRecorder()
	failing.Err = errors.New("disk full")
	healthy := NewMemoryRecorder()

	multi := Multi{failing, healthy}
	target := multi.NewTarget("s-1", "Al")

	err := multi.Append(context.Background(), target, sampleRecords()[0])
	require.Error(t, err)
	assert.Len(t, healthy.Entries(target), 1)
	assert.Empty(t, failing.Entries(target))
}
