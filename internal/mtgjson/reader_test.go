package mtgjson

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const allSetsSample = `{
  "M10": {
    "code": "M10",
    "name": "Magic 2010",
    "releaseDate": "2009-07-17",
    "meta": {"date": "2019-10-01", "version": "4.6.0+20191001"},
    "translations": {"French": "Édition de base 2010"},
    "cards": [
      {"uuid": "0b6b5a4e-0000-0000-0000-000000000001", "name": "Shivan Dragon", "number": "156"},
      {"uuid": 42},
      {"uuid": "0b6b5a4e-0000-0000-0000-000000000002", "name": "Llanowar Elves", "setCode": "M10"}
    ],
    "tokens": [
      {"uuid": "0b6b5a4e-0000-0000-0000-000000000003", "name": "Wolf"}
    ]
  },
  "ZEN": {
    "name": "Zendikar",
    "cards": [],
    "tokens": []
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func collect(t *testing.T, src *Source) ([]Record, []error) {
	t.Helper()
	var (
		records []Record
		errs    []error
	)
	for set, err := range src.Sets() {
		require.NoError(t, err)
		for rec, err := range set.Records() {
			if err != nil {
				errs = append(errs, err)
				continue
			}
			records = append(records, rec)
		}
	}
	return records, errs
}

func TestSourceAllSetsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "AllSets.json", allSetsSample)

	src, err := Open(path)
	require.NoError(t, err)

	records, errs := collect(t, src)

	require.Len(t, errs, 1)
	var decodeErr *DecodeError
	require.True(t, errors.As(errs[0], &decodeErr))
	assert.Equal(t, KindCard, decodeErr.Kind)
	assert.Equal(t, "M10", decodeErr.Set)
	assert.Equal(t, 1, decodeErr.Index)

	var kinds []Kind
	for _, r := range records {
		kinds = append(kinds, r.Kind())
	}
	assert.Equal(t, []Kind{KindSet, KindCard, KindCard, KindToken, KindSet}, kinds)

	m10 := records[0].(*Set)
	assert.Equal(t, "Magic 2010", *m10.Name)
	require.Len(t, m10.Translations, 1)

	shivan := records[1].(*Card)
	assert.Equal(t, "M10", shivan.SetCode, "cards inherit the set code")

	wolf := records[3].(*Token)
	assert.Equal(t, "M10", wolf.SetCode)

	zen := records[4].(*Set)
	assert.Equal(t, "ZEN", zen.Code, "set code falls back to the AllSets key")
}

func TestSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ZEN.json", `{"name":"Zendikar","cards":[{"name":"Forest"}]}`)
	writeFile(t, dir, "M10.json", `{"code":"M10","name":"Magic 2010"}`)
	writeFile(t, dir, "README.txt", "not a set")

	src, err := Open(dir)
	require.NoError(t, err)

	records, errs := collect(t, src)
	assert.Empty(t, errs)
	require.Len(t, records, 3)

	assert.Equal(t, "M10", records[0].Ref(), "files are read in name order")
	assert.Equal(t, "ZEN", records[1].Ref(), "set code falls back to the file stem")
	assert.Equal(t, "ZEN", records[2].(*Card).SetCode)
}

func TestSourceMalformedTopLevel(t *testing.T) {
	path := writeFile(t, t.TempDir(), "AllSets.json", `[1, 2, 3]`)

	src, err := Open(path)
	require.NoError(t, err)

	var gotErr error
	for _, err := range src.Sets() {
		gotErr = err
	}
	assert.ErrorContains(t, gotErr, "expected an object of sets")
}

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCheckVersion(t *testing.T) {
	v4 := "4.6.2+20200110"
	v5 := "5.2.0"
	junk := "latest"

	assert.NoError(t, CheckVersion("M10", nil))
	assert.NoError(t, CheckVersion("M10", &Meta{}))
	assert.NoError(t, CheckVersion("M10", &Meta{Version: &v4}))
	assert.ErrorIs(t, CheckVersion("M10", &Meta{Version: &v5}), ErrUnsupportedVersion)
	assert.ErrorIs(t, CheckVersion("M10", &Meta{Version: &junk}), ErrUnsupportedVersion)
}
