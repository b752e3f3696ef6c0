package commands

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/simrec/core"
	"github.com/rushteam/simrec/internal/fixture"
	"github.com/rushteam/simrec/service"
)

var recordHeader = []string{
	"movie_id", "title", "genres", "cast", "director", "production_companies",
	"production_countries", "spoken_languages", "overview", "tagline", "keywords",
}

func writeRecords(t *testing.T, recs []core.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movies.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(recordHeader))
	for _, r := range recs {
		require.NoError(t, w.Write([]string{
			strconv.FormatInt(r.MovieID, 10), r.Title, r.Genres, r.Cast, r.Director, r.ProductionCompanies,
			r.ProductionCountries, r.SpokenLanguages, r.Overview, r.Tagline, r.Keywords,
		}))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "simrec", cmd.Use)

	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"build", "recommend"})

	for flag, def := range map[string]string{"config": "", "artifacts": "", "format": "table", "log-level": ""} {
		f := cmd.PersistentFlags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestDecodeRecords(t *testing.T) {
	t.Run("id alias and missing columns", func(t *testing.T) {
		recs, err := DecodeRecords(strings.NewReader("ID,Title,Genres\n7,Deep Blue Hunt,\"Thriller, Adventure\"\n"))
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, core.Record{MovieID: 7, Title: "Deep Blue Hunt", Genres: "Thriller, Adventure"}, recs[0])
	})

	t.Run("errors", func(t *testing.T) {
		tests := map[string]string{
			"empty":      "",
			"no id":      "title,genres\nA,B\n",
			"bad id":     "movie_id,title\nabc,A\n",
			"missing id": "movie_id,title\n,A\n",
		}
		for name, in := range tests {
			_, err := DecodeRecords(strings.NewReader(in))
			assert.Error(t, err, name)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		want := fixture.Movies()
		got, err := LoadRecords(writeRecords(t, want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestBuildAndRecommend(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "simrec.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: disabled\n"), 0o644))
	artifacts := filepath.Join(dir, "artifacts")
	csvPath := writeRecords(t, append(fixture.Movies(), fixture.Empty(200)))

	out, err := run(t, "--config", cfgPath, "--artifacts", artifacts, "build", csvPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Indexed 8 of 9 movies")
	for _, name := range []string{service.IndexFile, "movie_reference.csv"} {
		assert.FileExists(t, filepath.Join(artifacts, name))
	}

	out, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "recommend", "1", "--top-n", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "MOVIE ID")
	assert.Contains(t, out, "Star Voyage II")

	out, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "--format", "json", "recommend", "4", "-n", "3")
	require.NoError(t, err, out)
	var res service.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, service.StatusOK, res.Status)
	require.Len(t, res.Items, 3)
	assert.Equal(t, int64(5), res.Items[0].ItemID)

	out, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "recommend", "1", "-n", "2", "--nprobe", "1000")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Star Voyage II")

	out, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "recommend", "999")
	require.NoError(t, err)
	assert.Contains(t, out, "not found")

	out, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "recommend", "200")
	require.NoError(t, err)
	assert.Contains(t, out, "no content")

	_, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "--format", "xml", "recommend", "1")
	assert.Error(t, err)
	_, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "recommend", "abc")
	assert.Error(t, err)
	_, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "recommend", "1", "--top-n", "0")
	assert.Error(t, err)
	_, err = run(t, "--config", cfgPath, "--artifacts", artifacts, "recommend", "1", "--nprobe", "-1")
	assert.Error(t, err)
}
