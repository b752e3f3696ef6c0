package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/simrec/core"
)

func openStores(t *testing.T) map[string]core.Store {
	t.Helper()
	mem := NewMemoryStore()
	bdg, err := OpenBadgerStore("", zerolog.Nop())
	require.NoError(t, err)
	disk, err := OpenBadgerStore(filepath.Join(t.TempDir(), "catalog"), zerolog.Nop())
	require.NoError(t, err)
	stores := map[string]core.Store{"memory": mem, "badger-mem": bdg, "badger-disk": disk}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.True(t, core.IsStoreNotFound(err))

			require.NoError(t, s.BatchSet(ctx, map[string][]byte{
				"item:1": []byte("one"),
				"item:2": []byte("two"),
				"item:3": []byte("three"),
			}))
			got, err := s.BatchGet(ctx, []string{"item:1", "item:2", "item:3", "item:4"})
			require.NoError(t, err)
			assert.Equal(t, map[string][]byte{
				"item:1": []byte("one"),
				"item:2": []byte("two"),
				"item:3": []byte("three"),
			}, got)

			v, err := s.Get(ctx, "item:1")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), v)

			require.NoError(t, s.BatchSet(ctx, map[string][]byte{"item:1": []byte("uno")}))
			v, err = s.Get(ctx, "item:1")
			require.NoError(t, err)
			assert.Equal(t, []byte("uno"), v)

			got, err = s.BatchGet(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		cfg     Config
		name    string
		wantErr bool
	}{
		{cfg: Config{}, name: "memory"},
		{cfg: Config{Backend: BackendMemory}, name: "memory"},
		{cfg: Config{Backend: BackendBadger}, name: "badger"},
		{cfg: Config{Backend: "etcd"}, wantErr: true},
	}
	for _, tt := range tests {
		s, err := Open(ctx, tt.cfg, zerolog.Nop())
		if tt.wantErr {
			assert.True(t, core.IsNotSupported(err))
			assert.ErrorIs(t, err, core.ErrStoreNotSupported)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.name, s.Name())
		s.Close()
	}
}
