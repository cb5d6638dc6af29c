package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hotbar/internal/ir"
)

func TestMemoryJournal_IdempotentAppend(t *testing.T) {
	j := NewMemoryJournal()
	e := ir.Entry{ID: "a", SessionToken: "s", Seq: 1, Kind: ir.KindTick}

	require.NoError(t, j.Append(context.Background(), e))
	require.NoError(t, j.Append(context.Background(), e))

	assert.Len(t, j.Entries(), 1)
}

func TestMemoryJournal_SessionOrdering(t *testing.T) {
	j := NewMemoryJournal()
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, ir.Entry{ID: "c", SessionToken: "s", Seq: 2, Kind: ir.KindTick}))
	require.NoError(t, j.Append(ctx, ir.Entry{ID: "x", SessionToken: "t", Seq: 1, Kind: ir.KindSessionStart}))
	require.NoError(t, j.Append(ctx, ir.Entry{ID: "b", SessionToken: "s", Seq: 1, Kind: ir.KindSessionStart}))
	require.NoError(t, j.Append(ctx, ir.Entry{ID: "a", SessionToken: "s", Seq: 2, Kind: ir.KindProbeSent}))

	got := j.Session("s")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].ID, got[1].ID, got[2].ID}, "seq ASC, then id ASC")

	assert.Equal(t, []string{"t", "s"}, j.Sessions(), "order of first session_start append")
	assert.Empty(t, j.Session("unknown"))
}
