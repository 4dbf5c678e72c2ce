package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/ocrlayout/model"
)

func TestParse(t *testing.T) {
	for in, want := range map[string]Format{"yaml": YAML, "YML": YAML, " json ": JSON} {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := Parse("xml")
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	doc := model.DocumentResult{
		FilePath: "scan.pdf",
		Pages:    []model.PageResult{},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, doc))
	assert.JSONEq(t, `{"file_path":"scan.pdf","pages":[]}`, buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, YAML, doc))
	assert.Equal(t, "file_path: scan.pdf\npages: []\n", buf.String())

	assert.Error(t, Write(&buf, Format("xml"), doc))
}

func TestWriteKeepsMarkup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, map[string]string{"text": "a < b & c"}))
	assert.Contains(t, buf.String(), "a < b & c")
}
