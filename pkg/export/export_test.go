package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterUsesCRLFAndQuoting(t *testing.T) {
	table := Table{
		Headers: []string{"ID", "Note"},
		Rows: [][]string{
			{"1", ""},
			{"2", "late, with \"reason\""},
		},
	}

	out, err := NewCSVExporter().Render(table)
	require.NoError(t, err)
	assert.Equal(t, "ID,Note\r\n1,\r\n2,\"late, with \"\"reason\"\"\"\r\n", string(out))
}

func TestCSVExporterDeterministic(t *testing.T) {
	table := Table{Headers: []string{"A"}, Rows: [][]string{{"x"}, {"y"}}}
	first, err := NewCSVExporter().Render(table)
	require.NoError(t, err)
	second, err := NewCSVExporter().Render(table)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	_, err := NewCSVExporter().Render(Table{Headers: []string{"A", "B"}, Rows: [][]string{{"only"}}})
	assert.Error(t, err)

	_, err = NewCSVExporter().Render(Table{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	table := Table{Headers: []string{"ID", "Name"}, Rows: [][]string{{"1", "Ana"}}}
	out, err := NewPDFExporter().Render(table, "Attendance")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
