package catalog

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/internal/fixture"
	"github.com/rushteam/simrec/store"
)

func TestCatalog_PutGet(t *testing.T) {
	ctx := context.Background()
	s, err := store.OpenBadgerStore("", zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	c := New(s)
	require.NoError(t, c.PutRecords(ctx, fixture.Movies()))

	m, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, core.Metadata{ItemID: 3, Title: "Robot Dawn", Genres: "Science Fiction, Action"}, m)

	_, err = c.Get(ctx, 99)
	assert.ErrorIs(t, err, ErrMetadataNotFound)

	got, err := c.BatchGetMetadata(ctx, []int64{1, 99, 8})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "The Quiet Ledger", got[8].Title)
}

func TestEnrichNode(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()
	c := New(s)
	require.NoError(t, c.Put(ctx, []core.Metadata{{ItemID: 1, Title: "A", Genres: "Drama"}}))

	items := []*core.Item{core.NewItem(1), core.NewItem(2)}
	out, err := (&EnrichNode{Reader: c}).Process(ctx, nil, items)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].MetaString("title"))
	assert.Equal(t, "Drama", out[0].MetaString("genres"))
	assert.Equal(t, "", out[1].MetaString("title"))
}

func TestReference_RoundTrip(t *testing.T) {
	recs := fixture.Movies()[:4]
	recs[1].Title = `Title, with "quotes"`
	entries := BuildReference(recs, []bool{false, true, false, false})
	assert.Equal(t, []int64{0, -1, 1, 2}, []int64{entries[0].Row, entries[1].Row, entries[2].Row, entries[3].Row})
	require.NoError(t, ValidateReference(entries, 3))

	path := filepath.Join(t.TempDir(), ReferenceFile)
	require.NoError(t, WriteReference(path, entries))
	got, err := ReadReference(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	var buf bytes.Buffer
	require.NoError(t, EncodeReference(&buf, entries[:1]))
	assert.Equal(t, "row,movie_id,title,genres\n0,1,Star Voyage,\"Science Fiction, Adventure\"\n", buf.String())
}

func TestValidateReference(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		ntotal  int64
		wantErr bool
	}{
		{"ok", []Entry{{Row: 0, ItemID: 1}, {Row: -1, ItemID: 2}, {Row: 1, ItemID: 3}}, 2, false},
		{"duplicate id", []Entry{{Row: 0, ItemID: 1}, {Row: 1, ItemID: 1}}, 2, true},
		{"duplicate row", []Entry{{Row: 0, ItemID: 1}, {Row: 0, ItemID: 2}}, 2, true},
		{"row out of range", []Entry{{Row: 5, ItemID: 1}}, 1, true},
		{"missing rows", []Entry{{Row: 0, ItemID: 1}}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReference(tt.entries, tt.ntotal)
			if tt.wantErr {
				assert.True(t, core.IsInvalidInput(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDecodeReference_Errors(t *testing.T) {
	for _, in := range []string{
		"",
		"movie_id,title\n1,A\n",
		"row,movie_id\nx,1\n",
		"row,movie_id\n0,y\n",
	} {
		_, err := DecodeReference(strings.NewReader(in))
		assert.True(t, core.IsInvalidInput(err), "input %q", in)
	}
}
