package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("creates defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf", "ghostbody.yaml")
		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, Default(), *cfg)
		_, err = os.Stat(path)
		require.NoError(t, err)
		again, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, cfg, again)
	})
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ghostbody.yaml")
		data := "storage:\n  mode: jsonl\n  path: data/bodies.jsonl\nlog:\n  level: debug\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, ModeJSONL, cfg.Storage.Mode)
		require.Equal(t, filepath.Join(filepath.Dir(path), "data", "bodies.jsonl"), cfg.StoragePath(path))
		require.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
		// Unset sections keep their defaults.
		require.Equal(t, Default().Arena, cfg.Arena)
	})
	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name string
			data string
		}{
			{"mode", "storage:\n  mode: s3\n"},
			{"jsonl path", "storage:\n  mode: jsonl\n"},
			{"chunk", "arena:\n  chunk_size: 10\n"},
			{"level", "log:\n  level: loud\n"},
			{"yaml", "storage: [\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "ghostbody.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))
				_, err := Load(path)
				require.Error(t, err)
			})
		}
	})
}

func TestSaveRejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.Storage.Mode = "nope"
	require.ErrorContains(t, cfg.Save(filepath.Join(t.TempDir(), "c.yaml")), "storage")
}

func TestJSONSchema(t *testing.T) {
	data, err := JSONSchema()
	require.NoError(t, err)
	var s map[string]any
	require.NoError(t, json.Unmarshal(data, &s))
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, props, "storage")
	require.Contains(t, props, "arena")
	require.Contains(t, props, "log")
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostbody.yaml")
	_, err := Load(path)
	require.NoError(t, err)

	got := make(chan *Config, 10)
	require.NoError(t, Watch(t.Context(), path, func(c *Config) { got <- c }))

	cfg := Default()
	cfg.Log.Level = "warn"
	require.NoError(t, cfg.Save(path))
	// A reload may observe the truncated file first.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Log.Level == "warn" {
				return
			}
		case <-timeout:
			t.Fatal("no reload")
		}
	}
}

func TestWatchWaitsForQuiet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghostbody.yaml")
	_, err := Load(path)
	require.NoError(t, err)

	got := make(chan *Config, 10)
	require.NoError(t, Watch(t.Context(), path, func(c *Config) { got <- c }))

	// An editor saving in two steps; only the final content must be seen.
	cfg := Default()
	cfg.Log.Level = "error"
	require.NoError(t, cfg.Save(path))
	time.Sleep(20 * time.Millisecond)
	cfg.Log.Level = "warn"
	last := time.Now()
	require.NoError(t, cfg.Save(path))

	select {
	case c := <-got:
		require.Equal(t, "warn", c.Log.Level)
		require.GreaterOrEqual(t, time.Since(last), reloadInterval)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}
