package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerLifecycle(t *testing.T) {
	h := newHarness(t, nil, nil)
	s := h.scheduler

	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())
	assert.True(t, s.GetNextRun().After(time.Now()))

	// Starting twice is an error.
	assert.Error(t, s.Start())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())

	// Stopping an already stopped scheduler is a no-op.
	require.NoError(t, s.Stop())
}

func TestRestartResumesProcessing(t *testing.T) {
	h := newHarness(t, scenarioEmails(), scenarioVerdicts())
	s := h.scheduler

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	require.NoError(t, s.Start())
	defer s.Stop()

	// A cycle after stop->start must ingest normally, not run against the
	// cancelled context of the previous run.
	require.NoError(t, s.RunOnce())
	assert.Len(t, h.report.emailRows, 3)
	assert.Equal(t, 3, h.processed.Len())
}

func TestRestartKeepsSingleCronEntry(t *testing.T) {
	h := newHarness(t, nil, nil)
	s := h.scheduler

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunOnceWithoutStart(t *testing.T) {
	h := newHarness(t, scenarioEmails(), scenarioVerdicts())

	// A manual trigger needs no running cron loop.
	require.False(t, h.scheduler.IsRunning())
	require.NoError(t, h.scheduler.RunOnce())
	assert.Len(t, h.report.emailRows, 3)
}
