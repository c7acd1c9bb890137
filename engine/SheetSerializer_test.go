package engine

import (
	"testing"

	"github.com/henrika2/spreadsheet/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetSerializer_Marshal(t *testing.T) {
	serializer := NewSheetSerializer()

	t.Run("string_forms", func(t *testing.T) {
		sheet := NewSheet()
		_mustSet(t, sheet, "b1", "=a1")
		_mustSet(t, sheet, "A1", "2.50")
		_mustSet(t, sheet, "C1", "some text")

		data, err := serializer.Marshal(sheet)
		require.NoError(t, err)
		assert.JSONEq(t, `{"Cells":{
			"A1":{"StringForm":"2.5"},
			"B1":{"StringForm":"=A1"},
			"C1":{"StringForm":"some text"}
		}}`, string(data))
	})

	t.Run("deterministic", func(t *testing.T) {
		sheet := NewSheet()
		for _, name := range []string{"E5", "A1", "C3", "B2", "D4"} {
			_mustSet(t, sheet, name, name)
		}

		first, err := serializer.Marshal(sheet)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := serializer.Marshal(sheet)
			require.NoError(t, err)
			assert.Equal(t, string(first), string(again))
		}
	})
}

func TestSheetSerializer_Unmarshal(t *testing.T) {
	serializer := NewSheetSerializer()

	t.Run("valid_data", func(t *testing.T) {
		document, err := serializer.Unmarshal([]byte(`{"Cells":{"A1":{"StringForm":"=B1*2"},"B1":{"StringForm":"3"}}}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]CellDocument{
			"A1": {StringForm: "=B1*2"},
			"B1": {StringForm: "3"},
		}, document.Cells)
	})

	t.Run("invalid_data", func(t *testing.T) {
		for _, data := range []string{"", "[]", `{"Cells":`, `{"Cells":null}`, `{"Other":{}}`, `{"Cells":{"A1":"5"}}`} {
			document, err := serializer.Unmarshal([]byte(data))
			assert.ErrorIs(t, err, contracts.ReadWriteError, data)
			assert.Nil(t, document)
		}
	})
}
