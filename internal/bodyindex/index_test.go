package bodyindex

import (
	"slices"
	"testing"

	"github.com/maruel/ksid"
	"github.com/stretchr/testify/require"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/body"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/fieldmap"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

var (
	post    = fieldmap.MustSchema("post", fieldmap.Field{Name: "title", Kind: fieldmap.KindUTF8})
	comment = fieldmap.MustSchema("comment", fieldmap.Field{Name: "text", Kind: fieldmap.KindUTF16})
)

func TestIndex(t *testing.T) {
	r := txn.NewRepository(txn.Options{})
	idx := New(r)

	_, tx, err := r.BeginWrite(t.Context())
	require.NoError(t, err)
	p1, err := body.New(tx, post)
	require.NoError(t, err)
	c1, err := body.New(tx, comment)
	require.NoError(t, err)
	p2, err := body.New(tx, post)
	require.NoError(t, err)

	require.Equal(t, []*body.Body{p1, c1, p2}, slices.Collect(idx.Bodies(tx)))
	require.Equal(t, []*body.Body{p1, p2}, slices.Collect(idx.ByType(tx, "post")))
	require.Empty(t, slices.Collect(idx.ByType(tx, "user")))

	var modified []*body.Body
	idx.ReadModifiedBodies(tx, func(b *body.Body) bool {
		modified = append(modified, b)
		return len(modified) < 2
	})
	require.Equal(t, []*body.Body{p1, c1}, modified)

	require.Empty(t, idx.Committed("post"))
	require.NoError(t, tx.Commit(t.Context()))
	require.Equal(t, []string{"comment", "post"}, idx.Types())
	require.ElementsMatch(t, []ksid.ID{p1.ID(), p2.ID()}, idx.Committed("post"))
	require.NoError(t, tx.Close())
	require.Empty(t, slices.Collect(idx.Bodies(tx)))

	// A new index picks up what the store already holds.
	again := New(r)
	require.Equal(t, idx.Committed("comment"), again.Committed("comment"))
	require.Len(t, again.Committed("post"), 2)
}

func TestIndexRollback(t *testing.T) {
	r := txn.NewRepository(txn.Options{})
	idx := New(r)
	_, tx, err := r.BeginWrite(t.Context())
	require.NoError(t, err)
	_, err = body.New(tx, post)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Close())
	require.Empty(t, idx.Types())
}
