package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bizledger/bizledger/jobs"
)

type stubOps struct {
	triggered []string
	stats     QueueStats
	err       error
}

func (s *stubOps) Trigger(_ context.Context, name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.triggered = append(s.triggered, name)
	return "task-1", nil
}

func (s *stubOps) InspectQueue(context.Context) (QueueStats, error) {
	return s.stats, s.err
}

func TestRunTrigger(t *testing.T) {
	ops := &stubOps{}
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), ops, []string{"trigger", jobs.TaskReceivablesScan}, &out))
	require.Equal(t, []string{jobs.TaskReceivablesScan}, ops.triggered)
	require.Equal(t, "enqueued receivables:scan id=task-1\n", out.String())
}

func TestRunStats(t *testing.T) {
	ops := &stubOps{stats: QueueStats{Queue: jobs.QueueDefault, Pending: 2, Retry: 1}}
	var out bytes.Buffer

	require.NoError(t, Run(context.Background(), ops, []string{"stats"}, &out))
	var got QueueStats
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Equal(t, ops.stats, got)
}

func TestRunRejectsBadArguments(t *testing.T) {
	ops := &stubOps{}
	for _, args := range [][]string{nil, {"trigger"}, {"trigger", "a", "b"}, {"purge"}} {
		require.ErrorIs(t, Run(context.Background(), ops, args, &bytes.Buffer{}), ErrUsage)
	}
}

func TestRunPropagatesErrors(t *testing.T) {
	boom := errors.New("redis down")
	ops := &stubOps{err: boom}
	require.ErrorIs(t, Run(context.Background(), ops, []string{"stats"}, &bytes.Buffer{}), boom)
	require.ErrorIs(t, Run(context.Background(), ops, []string{"trigger", "x"}, &bytes.Buffer{}), boom)
}

func TestTriggerRequiresClient(t *testing.T) {
	c := &JobsCLI{}
	_, err := c.Trigger(context.Background(), jobs.TaskReceivablesScan)
	require.Error(t, err)
}
