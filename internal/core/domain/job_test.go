package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_Classification(t *testing.T) {
	tests := []struct {
		status     JobStatus
		terminal   bool
		success    bool
		inProgress bool
	}{
		{JobPending, false, false, true},
		{JobInProgress, false, false, true},
		{JobProcessing, false, false, true},
		{JobSuccess, true, true, false},
		{JobPartialSuccess, true, true, false},
		{JobError, true, false, false},
		{JobCancelled, true, false, false},
		{JobUnknown, false, false, false},
		{JobStatus("QUEUED_SOMEWHERE"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
			assert.Equal(t, tt.success, tt.status.IsSuccess())
			assert.Equal(t, tt.inProgress, tt.status.IsInProgress())
		})
	}
}
