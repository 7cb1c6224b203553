package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
)

func TestBoltStoreSaveLoadDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := Open(path)
	require.NoError(t, err)

	ctx := context.Background()
	session := interview.Session{
		ID:            "s-1",
		CandidateName: "Al",
		TraitIndex:    1,
		Turns:         []interview.Turn{interview.NewScenarioTurn("S2", "Q2")},
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, session))

	session.Turns = append(session.Turns, interview.NewFollowUpTurn("S2", 1, "why?"))
	require.NoError(t, store.Save(ctx, session))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 1, loaded[0].TraitIndex)
	require.Len(t, loaded[0].Turns, 2)
	assert.Equal(t, interview.TurnFollowUp, loaded[0].Turns[1].Kind)

	require.NoError(t, reopened.Delete(ctx, "s-1"))
	require.NoError(t, reopened.Delete(ctx, "s-1"))
	loaded, err = reopened.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
