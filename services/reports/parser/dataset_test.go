package parser

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDatasetUnionOfColumns(t *testing.T) {
	ds := NewDataset()
	ds.Add(Record{SourceField: "a.htm", "x": "1", "y": "2"})
	ds.Add(Record{SourceField: "b.htm", "y": "3", "z": "4"})

	diff := cmp.Diff([]string{SourceField, "x", "y", "z"}, ds.Fields())
	if diff != "" {
		t.Fatal(diff)
	}

	var buf bytes.Buffer
	rows := make([]map[string]string, ds.Len())
	for i, rec := range ds.Records() {
		rows[i] = rec
	}
	err := WriteTable(&buf, ds.Fields(), rows)
	require.NoError(t, err)

	out := buf.Bytes()
	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))

	lines := strings.Split(strings.TrimSpace(string(out[3:])), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Dateiname_Quelle,x,y,z", lines[0])
	// record a has an empty cell for z, record b for x
	require.Equal(t, "a.htm,1,2,", lines[1])
	require.Equal(t, "b.htm,,3,4", lines[2])
}

func TestReadTableRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTable(&buf, []string{"a", "b"}, []map[string]string{
		{"a": "1", "b": "2"},
		{"a": "3"},
	})
	require.NoError(t, err)

	columns, rows, err := ReadTable(&buf)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, columns)
	require.Len(t, rows, 2)
	require.Equal(t, "1", rows[0]["a"])
	require.Equal(t, "", rows[1]["b"])
}

func TestConvertDirectory(t *testing.T) {
	dir := t.TempDir()

	// document A contributes general-info fields, document B part
	// fields; the serialized dataset must be the column union
	docA := `<html><body><table>
		<tr><td><b>Datum des Berichts</b></td></tr>
		<tr><td>2024-01-01</td></tr>
	</table></body></html>`
	docB := `<html><body>
	Prüfteil
	<table><tr><td><table>
		<tr><td><b>Material</b></td></tr>
		<tr><td>Stahl</td></tr>
	</table></td></tr></table>
	</body></html>`

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.htm"), []byte(docA), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.HTML"), []byte(docB), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("kein bericht"), 0644))

	out := filepath.Join(dir, "out.csv")
	err := ConvertDirectory(context.Background(), dir, out)
	require.NoError(t, err)

	file, err := os.Open(out)
	require.NoError(t, err)
	defer file.Close()

	columns, rows, err := ReadTable(file)
	require.NoError(t, err)

	require.Equal(t, []string{
		"Allgemein_Datum_des_Berichts",
		SourceField,
		"Pruefteil_Material",
	}, columns)
	require.Len(t, rows, 2)

	require.Equal(t, "a.htm", rows[0][SourceField])
	require.Equal(t, "2024-01-01", rows[0]["Allgemein_Datum_des_Berichts"])
	require.Equal(t, "", rows[0]["Pruefteil_Material"])

	require.Equal(t, "b.HTML", rows[1][SourceField])
	require.Equal(t, "Stahl", rows[1]["Pruefteil_Material"])
}

func TestConvertDirectoryNoReports(t *testing.T) {
	dir := t.TempDir()
	err := ConvertDirectory(context.Background(), dir, filepath.Join(dir, "out.csv"))
	require.ErrorIs(t, err, ErrNoReports)
}
