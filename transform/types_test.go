package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateJsonNames(t *testing.T) {
	for s := range taskStateNames {
		b, err := json.Marshal(s)
		require.NoError(t, err)
		var got TaskState
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, s, got)
	}
	for s := range dagRunStateNames {
		b, err := json.Marshal(s)
		require.NoError(t, err)
		var got DagRunState
		require.NoError(t, json.Unmarshal(b, &got))
		assert.Equal(t, s, got)
	}
	var ts TaskState
	assert.Error(t, json.Unmarshal([]byte(`"exploded"`), &ts))
	var rs DagRunState
	assert.Error(t, json.Unmarshal([]byte(`3`), &rs))

	// A run status decodes back from the JSON served by the web service.
	var status RunStatus
	require.NoError(t, json.Unmarshal([]byte(`{"runId":"r1","state":"failed","tasks":[{"taskId":"a","state":"upstream_failed"}]}`), &status))
	assert.Equal(t, DagRunStateFailed, status.State)
	assert.Equal(t, TaskStateUpstreamFailed, status.Tasks[0].State)
	assert.True(t, status.IsFinished())
}
