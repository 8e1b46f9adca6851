package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcRunnerExitStatus(t *testing.T) {
	tests := []struct {
		name   string
		cmd    *Command
		status int
	}{
		{
			name:   "ZeroExit",
			cmd:    New("true"),
			status: 0,
		},
		{
			name:   "NonZeroExit",
			cmd:    New("false"),
			status: 1,
		},
		{
			name:   "SpecificStatus",
			cmd:    New("sh", "-c", "exit 3"),
			status: 3,
		},
	}

	runner := &ProcRunner{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := runner.Run(context.Background(), tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestProcRunnerMissingBinary(t *testing.T) {
	runner := &ProcRunner{}
	_, err := runner.Run(context.Background(), New("definitely-not-a-real-tool"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "definitely-not-a-real-tool")
}

func TestProcRunnerTimeout(t *testing.T) {
	runner := &ProcRunner{Timeout: 50 * time.Millisecond}
	_, err := runner.Run(context.Background(), New("sleep", "5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not finish")
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "mcl", New("mcl").String())
	assert.Equal(t, "fastANI --ql in.txt -o out.tsv",
		New("fastANI", "--ql", "in.txt", "-o", "out.tsv").String())
}
