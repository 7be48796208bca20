package persist

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/maruel/ksid"
	"github.com/stretchr/testify/require"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/body"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/fieldmap"
	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, nil)
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "bodies.jsonl")
	s := openStore(t, path)
	require.Equal(t, 0, s.Len())

	big := bytes.Repeat([]byte("ghost"), 10_000)
	require.NoError(t, s.Put(t.Context(), []txn.Record{
		{ID: ksid.ID(2), Type: "post", Data: []byte("first")},
		{ID: ksid.ID(1), Type: "post", Data: big},
	}))
	require.NoError(t, s.Put(t.Context(), []txn.Record{
		{ID: ksid.ID(2), Type: "post", Data: []byte("second")},
	}))
	require.NoError(t, s.Put(t.Context(), nil))
	require.Equal(t, 2, s.Len())
	require.Equal(t, 1, s.Stale())
	require.NoError(t, s.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Less(t, info.Size(), int64(len(big)))

	s = openStore(t, path)
	defer func() { require.NoError(t, s.Close()) }()
	got, ok := s.Get(ksid.ID(2))
	require.True(t, ok)
	require.Equal(t, []byte("second"), got.Data)
	got, ok = s.Get(ksid.ID(1))
	require.True(t, ok)
	require.Equal(t, big, got.Data)
	_, ok = s.Get(ksid.ID(3))
	require.False(t, ok)

	var ids []ksid.ID
	for rec := range s.All() {
		ids = append(ids, rec.ID)
	}
	require.Equal(t, []ksid.ID{1, 2}, ids)

	require.Equal(t, 1, s.Stale())
	require.NoError(t, s.Compact())
	require.Equal(t, 0, s.Stale())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bodies.jsonl")
	s := openStore(t, path)
	require.NoError(t, s.Put(t.Context(), []txn.Record{{ID: ksid.ID(1), Type: "t", Data: []byte("payload")}}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = bytes.Replace(data, []byte(`"size":7`), []byte(`"size":8`), 1)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	_, err = Open(path, nil)
	require.ErrorContains(t, err, "checksum mismatch")

	require.NoError(t, os.WriteFile(path, []byte("{not json\n"), 0o644))
	_, err = Open(path, nil)
	require.ErrorContains(t, err, "failed to unmarshal row 1")
}

func TestStoreCanceled(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "bodies.jsonl"))
	defer func() { require.NoError(t, s.Close()) }()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.ErrorIs(t, s.Put(ctx, []txn.Record{{ID: ksid.ID(1)}}), context.Canceled)
	require.Equal(t, 0, s.Len())
}

func TestRepositoryRoundTrip(t *testing.T) {
	schema := fieldmap.MustSchema("note",
		fieldmap.Field{Name: "title", Kind: fieldmap.KindUTF8},
		fieldmap.Field{Name: "scores", Kind: fieldmap.KindArray, ElemSize: 4, Encoding: fieldmap.Large},
	)
	path := filepath.Join(t.TempDir(), "bodies.jsonl")

	r := txn.NewRepository(txn.Options{Store: openStore(t, path)})
	_, tx, err := r.BeginWrite(t.Context())
	require.NoError(t, err)
	b, err := body.New(tx, schema)
	require.NoError(t, err)
	require.NoError(t, b.Append(tx, 0, []byte("tab\tnul\x00line\n")))
	require.NoError(t, b.Append(tx, 1, []byte{1, 0, 0, 0, 2, 0, 0, 0}))
	want := b.Snapshot()
	id := b.ID()
	require.NoError(t, tx.Commit(t.Context()))
	require.NoError(t, tx.Close())
	require.NoError(t, r.Close())

	r = txn.NewRepository(txn.Options{Store: openStore(t, path)})
	defer func() { require.NoError(t, r.Close()) }()
	_, ro, err := r.BeginRead(t.Context())
	require.NoError(t, err)
	defer ro.Close()
	got, err := body.Load(ro, schema, id)
	require.NoError(t, err)
	require.Equal(t, want, got.Snapshot())
	require.NoError(t, got.CheckLayout())
	title, err := got.Bytes(0)
	require.NoError(t, err)
	require.Equal(t, "tab\tnul\x00line\n", string(title))
	scores, err := got.Bytes(1)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, scores)
}
