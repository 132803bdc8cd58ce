package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/stupid-simple/emlapp/scheduler"
)

type MockJob struct {
	mock.Mock
}

func (m *MockJob) Run() {
	m.Called()
}

func TestNewScheduler(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	s := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	assert.NotNil(t, s, "Scheduler should not be nil")
	assert.Zero(t, s.Len())
}

func TestScheduler_AddJob(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	s := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	mockJob := new(MockJob)

	err := s.AddJob(context.Background(), "* * * * *", mockJob)
	assert.NoError(t, err, "Should add job without error")
	assert.Equal(t, 1, s.Len())

	// Test with invalid schedule.
	err = s.AddJob(context.Background(), "invalid-schedule", mockJob)
	assert.Error(t, err, "Should return error with invalid schedule")
	assert.Equal(t, 1, s.Len())
}

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Run() {
	j.runs.Add(1)
}

func TestScheduler_StartStop(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	s := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	job := &countingJob{}
	err := s.AddJob(context.Background(), "@every 1s", job)
	assert.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool {
		return job.runs.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_RemoveJobs(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	s := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	mockJob1 := new(MockJob)
	mockJob2 := new(MockJob)

	err := s.AddJob(context.Background(), "* * * * *", mockJob1)
	assert.NoError(t, err)

	err = s.AddJob(context.Background(), "*/5 * * * *", mockJob2)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	s.RemoveJobs()
	assert.Zero(t, s.Len())

	err = s.AddJob(context.Background(), "* * * * *", mockJob1)
	assert.NoError(t, err, "Should be able to add job again after removal")
}
