package outcome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		status      string
		description string
		want        Outcome
	}{
		{
			name:   "ok code with delivered status",
			code:   "000",
			status: "delivered",
			want:   Delivered,
		},
		{
			name:   "delivered status is case insensitive",
			code:   "000",
			status: "DELIVERED",
			want:   Delivered,
		},
		{
			name:   "delivered status with surrounding whitespace",
			code:   " 000 ",
			status: " delivered ",
			want:   Delivered,
		},
		{
			name: "reversal code",
			code: "040",
			want: Reversed,
		},
		{
			name:   "reversed status without code",
			status: "reversed",
			want:   Reversed,
		},
		{
			name:   "reversal code wins over delivered status",
			code:   "040",
			status: "delivered",
			want:   Reversed,
		},
		{
			name: "failure code",
			code: "016",
			want: Failed,
		},
		{
			name:   "failure code with reversed status is a reversal",
			code:   "016",
			status: "reversed",
			want:   Reversed,
		},
		{
			name:   "ok code with failed status",
			code:   "000",
			status: "failed",
			want:   Failed,
		},
		{
			name:   "ok code with pending status",
			code:   "000",
			status: "pending",
			want:   Processing,
		},
		{
			name:   "ok code with initiated status",
			code:   "000",
			status: "initiated",
			want:   Processing,
		},
		{
			name: "processing code",
			code: "099",
			want: Processing,
		},
		{
			name:        "description mentions processing",
			description: "TRANSACTION PROCESSING - YET TO BE DELIVERED",
			want:        Processing,
		},
		{
			name:        "description mentions pending",
			description: "transaction pending verification",
			want:        Processing,
		},
		{
			name:   "unknown code and status",
			code:   "123",
			status: "weird",
			want:   Unknown,
		},
		{
			name: "empty response",
			want: Unknown,
		},
		{
			name:   "ok code with unrecognized status",
			code:   "000",
			status: "dispatched",
			want:   Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.code, tt.status, tt.description)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutcomeTerminal(t *testing.T) {
	assert.True(t, Delivered.Terminal())
	assert.True(t, Reversed.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, Processing.Terminal())
	assert.False(t, Unknown.Terminal())
}
