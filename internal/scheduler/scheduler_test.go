package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name     string
	schedule string
	err      error
	runs     atomic.Int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New(nil)

	job := &fakeJob{name: "refresh", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))
	assert.Equal(t, []string{"refresh"}, s.Jobs())

	assert.Error(t, s.AddJob(job), "duplicate names rejected")
	assert.Error(t, s.AddJob(&fakeJob{name: "bad", schedule: "not a cron spec"}))
}

func TestRunJobRecordsHistory(t *testing.T) {
	s := New(nil)

	job := &fakeJob{name: "refresh", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("refresh"))
	require.Eventually(t, func() bool {
		h, err := s.History("refresh")
		return err == nil && len(h.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	h, err := s.History("refresh")
	require.NoError(t, err)
	assert.True(t, h.Results[0].Success)
	assert.Equal(t, 1.0, h.SuccessRate())

	assert.Error(t, s.RunJob("unknown"))
}

func TestRunJobRetriesOnFailure(t *testing.T) {
	s := New(nil)
	s.retryDelay = time.Millisecond

	job := &fakeJob{name: "flaky", schedule: "@daily", err: errors.New("boom")}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))
	require.Eventually(t, func() bool {
		h, err := s.History("flaky")
		return err == nil && len(h.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Initial attempt plus maxRetries.
	assert.Equal(t, int32(3), job.runs.Load())

	h, _ := s.History("flaky")
	assert.False(t, h.Results[0].Success)
	assert.Equal(t, "boom", h.Results[0].Error)
	assert.Equal(t, 0.0, h.SuccessRate())
}

func TestHistoryBounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{Success: true})
	}
	assert.Len(t, h.Results, historyLimit)
	assert.Len(t, h.Latest(5), 5)
	assert.Len(t, h.Latest(1000), historyLimit)
}
