package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/henrika2/spreadsheet/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetPrinter_Print(t *testing.T) {
	sheet := engine.NewSheet()
	for name, content := range map[string]string{"A1": "2", "B1": "=A1*3", "C1": "title", "D1": "=C1+1"} {
		_, err := sheet.SetContents(name, content)
		require.NoError(t, err)
	}

	var out bytes.Buffer
	require.NoError(t, NewSheetPrinter(&out).Print(sheet))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.True(t, strings.HasPrefix(lines[0], "A1"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "6"))
	assert.Contains(t, lines[2], "title")
	assert.Contains(t, lines[3], "ERROR: ")
}

func TestSheetPrinter_PrintEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewSheetPrinter(&out).Print(engine.NewSheet()))
	assert.Empty(t, out.String())
}
