package csv

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"calls-dashboard/domain/calls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRows(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRows(&buf, []calls.Row{
		{Caller: "A", Category: "PIA", Count: 10},
		{Caller: "Smith, J", Category: "Unjustified Calls", Count: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "caller,category,count\nA,PIA,10\n\"Smith, J\",Unjustified Calls,0\n", buf.String())
}

func TestWriteRowsFileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "top_callers.csv")
	require.NoError(t, WriteRowsFile(path, nil))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "caller,category,count\n", string(b))
}
