package offsets

import (
	"path/filepath"
	"strings"
	"testing"

	"geotz/internal/tzerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tbl, err := Load(filepath.Join("testdata", "timeZones.txt"))
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())

	o, ok := tbl.Lookup("America/New_York")
	require.True(t, ok)
	assert.Equal(t, Offsets{Winter: -5, Summer: -4, GMT: -5}, o)

	o, ok = tbl.Lookup("Australia/Sydney")
	require.True(t, ok)
	assert.Equal(t, Offsets{Winter: 11, Summer: 10, GMT: 10}, o)

	_, ok = tbl.Lookup("Europe/Nowhere")
	assert.False(t, ok)
}

func TestLoadGeonamesLayout(t *testing.T) {
	tbl, err := Load(filepath.Join("testdata", "geonames.txt"))
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())

	o, ok := tbl.Lookup("Asia/Kathmandu")
	require.True(t, ok)
	assert.Equal(t, Uniform(5.75), o)
	_, ok = tbl.Lookup("US")
	assert.False(t, ok)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "absent.txt"))
	require.Error(t, err)
	assert.True(t, tzerr.IsInitialization(err))
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"short row":      "id\tw\ts\tg\nA/B\t1\t2\n",
		"bad number":     "id\tw\ts\tg\nA/B\t1\tx\t3\n",
		"empty id":       "id\tw\ts\tg\n \t1\t2\t3\n",
		"geonames short": "CountryCode\tid\tw\ts\tg\nUS\tA/B\t1\t2\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in))
			require.Error(t, err)
			assert.True(t, tzerr.IsInitialization(err))
		})
	}
}

func TestMissing(t *testing.T) {
	tbl := New(map[string]Offsets{"A": Uniform(1), "B": Uniform(2)})
	assert.Empty(t, tbl.Missing([]string{"A", "B", "A"}))
	assert.Equal(t, []string{"C", "D"}, tbl.Missing([]string{"A", "C", "D", "C"}))

	var nilTable *Table
	_, ok := nilTable.Lookup("A")
	assert.False(t, ok)
	assert.Equal(t, 0, nilTable.Len())
}
