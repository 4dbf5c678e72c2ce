package jobs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/ocrlayout/model"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusExtracting, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusAborted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.Terminal())
			assert.True(t, tt.status.Valid())
		})
	}
	assert.False(t, Status("bogus").Valid())
}

func TestNewJob(t *testing.T) {
	a := NewJob("/data/in.pdf", true)
	b := NewJob("/data/in.pdf", true)

	assert.Equal(t, StatusPending, a.Status)
	assert.True(t, a.MultiDoc)
	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, a.TaskID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, a.TaskID)
	assert.Nil(t, a.Result)
}

func TestNewResult(t *testing.T) {
	doc := model.NewDocument("empty.pdf")

	res := NewResult([]*model.Document{doc})
	assert.Equal(t, CompletedMessage, res.Message)
	require.Len(t, res.Documents, 1)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"documents":[{"file_path":"empty.pdf","pages":[]}],"message":"Processing completed successfully"}`, string(data))

	data, err = json.Marshal(NewResult(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"documents":[],"message":"Processing completed successfully"}`, string(data))
}
