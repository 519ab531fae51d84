package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	assert.NoError(t, ValidatePath([]string{"2025-W1", "Monday", "0"}))
	assert.NoError(t, ValidatePath([]string{"Monday", "bench-press"}))

	for _, invalid := range [][]string{
		nil,
		{},
		{"Monday", ""},
		{"Monday", "a.b"},
		{"$set", "x"},
	} {
		assert.ErrorIs(t, ValidatePath(invalid), ErrInvalidPath, "%v", invalid)
	}
}

func TestSetIn(t *testing.T) {
	doc := Document{}
	SetIn(doc, []string{"2025-W1", "Monday", "0"}, true)
	SetIn(doc, []string{"2025-W1", "Monday", "1"}, false)
	SetIn(doc, []string{"2025-W2", "Friday", "0"}, true)

	assert.Equal(t, Document{
		"2025-W1": map[string]any{
			"Monday": map[string]any{"0": true, "1": false},
		},
		"2025-W2": map[string]any{
			"Friday": map[string]any{"0": true},
		},
	}, doc)

	// leaf values on the way get replaced by containers
	SetIn(doc, []string{"2025-W1", "Monday", "0", "deeper"}, "x")
	monday := doc["2025-W1"].(map[string]any)["Monday"].(map[string]any)
	assert.Equal(t, map[string]any{"deeper": "x"}, monday["0"])
	assert.Equal(t, false, monday["1"])
}

func TestPlainValue(t *testing.T) {
	type pair struct {
		Andy      string `json:"Andy"`
		Petronela string `json:"Petronela"`
	}
	plain, err := PlainValue(pair{Andy: "20", Petronela: "10"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Andy": "20", "Petronela": "10"}, plain)

	plain, err = PlainValue(3)
	require.NoError(t, err)
	assert.Equal(t, float64(3), plain)

	_, err = PlainValue(make(chan int))
	assert.Error(t, err)
}

func TestCloneDocument_IsDeep(t *testing.T) {
	orig := Document{
		"Monday": map[string]any{"squat": map[string]any{"Andy": "10"}},
		"list":   []any{map[string]any{"a": 1.0}},
		"nested": Document{"x": "y"},
	}
	cloned := cloneDocument(orig)
	cloned["Monday"].(map[string]any)["squat"].(map[string]any)["Andy"] = "99"
	cloned["list"].([]any)[0].(map[string]any)["a"] = 2.0

	assert.Equal(t, "10", orig["Monday"].(map[string]any)["squat"].(map[string]any)["Andy"])
	assert.Equal(t, 1.0, orig["list"].([]any)[0].(map[string]any)["a"])
	_, isPlainMap := cloned["nested"].(map[string]any)
	assert.True(t, isPlainMap)
}
