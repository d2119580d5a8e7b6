package iojson

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, row{Title: "a", Kind: "epic"}))

	assert.Equal(t, "{\n  \"title\": \"a\",\n  \"kind\": \"epic\"\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_MarshalFailure(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"ch": make(chan int)}))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "error marshaling in iojson.Write")
}

func TestWriteLine(t *testing.T) {
	var out bytes.Buffer

	require.NoError(t, WriteLine(&out, row{Title: "a", Kind: "task"}))
	require.NoError(t, WriteLine(&out, row{Title: "b", Kind: "story"}))

	assert.Equal(t, `{"title":"a","kind":"task"}`+"\n"+`{"title":"b","kind":"story"}`+"\n", out.String())
}

func TestMarshalError(t *testing.T) {
	got := MarshalError("not found", map[string]any{"id": 7})
	assert.JSONEq(t, `{"message":"not found","data":{"id":7}}`, got)
}

func TestFileReader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"a","kind":"epic"},{"title":"b","kind":"task"}]`), 0o644))

	var fr FileReader[[]row]
	fr.SetFile(path)

	rows, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, []row{{"a", "epic"}, {"b", "task"}}, rows)
}

func TestFileReader_Stdin(t *testing.T) {
	fr := FileReader[[]row]{Stdin: strings.NewReader(`[{"title":"c","kind":"story"}]`)}

	rows, err := fr.Read()
	require.NoError(t, err)
	assert.Equal(t, []row{{"c", "story"}}, rows)
}

func TestFileReader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		var fr FileReader[[]row]
		fr.SetFile(filepath.Join(t.TempDir(), "nope.json"))

		_, err := fr.Read()
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("unknown field", func(t *testing.T) {
		fr := FileReader[[]row]{Stdin: strings.NewReader(`[{"title":"c","colour":"red"}]`)}

		_, err := fr.Read()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode JSON")
	})
}

func TestFileReader_Flag(t *testing.T) {
	var fr FileReader[row]
	flag := fr.Flag()

	assert.Equal(t, "file", flag.Name)
	assert.Equal(t, []string{"f"}, flag.Aliases)
}
