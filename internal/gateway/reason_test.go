package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"

	svcErr "github.com/oggyb/presence-gateway/internal/errors"
)

func TestReasonCloseFrames(t *testing.T) {
	tests := []struct {
		reason Reason
		code   int
		text   string
		label  string
		err    error
	}{
		{ReasonClosed, 1000, "Closed", "closed", nil},
		{ReasonError, 1011, "Error", "error", nil},
		{ReasonInvalidData, 1007, "Invalid Data", "invalid_data", svcErr.ErrProtocolViolation},
		{ReasonTimedOut, 1014, "Timed Out", "timed_out", svcErr.ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.reason.Code())
			assert.Equal(t, tt.text, tt.reason.Text())
			assert.Equal(t, tt.label, tt.reason.String())
			assert.Equal(t, tt.err, tt.reason.Err())
		})
	}
}

func TestSanitizeAgent(t *testing.T) {
	assert.Equal(t, "AxolotlClient/3.1", sanitizeAgent(` Axolotl"Client\/3.1 `))
	assert.Empty(t, sanitizeAgent(`\""`))
}
