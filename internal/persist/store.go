package persist

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/maruel/ksid"
	"golang.org/x/crypto/blake2b"

	"github.com/Gabriel-RABHI/GhostBodyObject.Experiments-sub000/internal/txn"
)

// maxLine bounds a single JSONL row while loading.
const maxLine = 64 << 20

type row struct {
	ID       ksid.ID `json:"id"`
	Type     string  `json:"type"`
	Size     int     `json:"size"`
	Checksum string  `json:"sum"`
	Data     []byte  `json:"data"`
}

// Store persists body snapshots in a JSONL file.
type Store struct {
	path string
	log  *slog.Logger
	enc  *zstd.Encoder
	dec  *zstd.Decoder

	mu    sync.RWMutex
	recs  map[ksid.ID]txn.Record
	lines int
}

// Open creates a Store and loads all rows from the file at path. A missing
// file is an empty store.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	s := &Store{
		path: path,
		log:  log.With("store", path),
		enc:  enc,
		dec:  dec,
		recs: make(map[ksid.ID]txn.Record),
	}
	if err := s.load(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open store file %s: %w", s.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r row
		if err := json.Unmarshal(line, &r); err != nil {
			return fmt.Errorf("failed to unmarshal row %d in %s: %w", s.lines+1, s.path, err)
		}
		rec, err := s.decode(&r)
		if err != nil {
			return fmt.Errorf("row %d in %s: %w", s.lines+1, s.path, err)
		}
		s.recs[rec.ID] = rec
		s.lines++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read store file %s: %w", s.path, err)
	}
	s.log.Debug("Loaded store", "bodies", len(s.recs), "rows", s.lines)
	return nil
}

func checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) encode(rec *txn.Record) row {
	return row{
		ID:       rec.ID,
		Type:     rec.Type,
		Size:     len(rec.Data),
		Checksum: checksum(rec.Data),
		Data:     s.enc.EncodeAll(rec.Data, nil),
	}
}

func (s *Store) decode(r *row) (txn.Record, error) {
	data, err := s.dec.DecodeAll(r.Data, make([]byte, 0, r.Size))
	if err != nil {
		return txn.Record{}, fmt.Errorf("failed to decompress body %s: %w", r.ID, err)
	}
	if len(data) != r.Size || checksum(data) != r.Checksum {
		return txn.Record{}, fmt.Errorf("body %s: checksum mismatch", r.ID)
	}
	return txn.Record{ID: r.ID, Type: r.Type, Data: data}, nil
}

func (s *Store) marshal(recs []txn.Record) ([]byte, error) {
	var buf bytes.Buffer
	for i := range recs {
		data, err := json.Marshal(s.encode(&recs[i]))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal row: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Put implements [txn.Store]. The rows of one call are written with a single
// write.
func (s *Store) Put(ctx context.Context, recs []txn.Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := s.marshal(recs)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open store file for append: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync store file: %w", err)
	}
	for i := range recs {
		s.recs[recs[i].ID] = recs[i].Clone()
	}
	s.lines += len(recs)
	return nil
}

// Get implements [txn.Store].
func (s *Store) Get(id ksid.ID) (txn.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.recs[id]
	if !ok {
		return txn.Record{}, false
	}
	return r.Clone(), true
}

// All implements [txn.Store].
func (s *Store) All() iter.Seq[txn.Record] {
	return func(yield func(txn.Record) bool) {
		s.mu.RLock()
		ids := make([]ksid.ID, 0, len(s.recs))
		for id := range s.recs {
			ids = append(ids, id)
		}
		s.mu.RUnlock()
		slices.Sort(ids)
		for _, id := range ids {
			r, ok := s.Get(id)
			if !ok {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Len returns the number of distinct bodies.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}

// Stale returns the number of file rows superseded by a later row.
func (s *Store) Stale() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lines - len(s.recs)
}

// Compact rewrites the file with only the latest row of each body, ordered by
// ID. The new file replaces the old one atomically.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]ksid.ID, 0, len(s.recs))
	for id := range s.recs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	recs := make([]txn.Record, len(ids))
	for i, id := range ids {
		recs[i] = s.recs[id]
	}
	data, err := s.marshal(recs)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write compacted store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	s.log.Info("Compacted store", "bodies", len(recs), "dropped", s.lines-len(recs))
	s.lines = len(recs)
	return nil
}

// Close implements [txn.Store].
func (s *Store) Close() error {
	s.dec.Close()
	if err := s.enc.Close(); err != nil {
		return fmt.Errorf("failed to close zstd encoder: %w", err)
	}
	return nil
}

var _ txn.Store = (*Store)(nil)
