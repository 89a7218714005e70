package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
	err  error
	ran  chan struct{}

	mu    sync.Mutex
	calls int
}

func newStubJob(name string, err error) *stubJob {
	return &stubJob{name: name, err: err, ran: make(chan struct{}, 8)}
}

func (j *stubJob) Name() string        { return j.name }
func (j *stubJob) Description() string { return "stub " + j.name }

func (j *stubJob) Run(context.Context) error {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	j.ran <- struct{}{}
	return j.err
}

func newTestScheduler(clock clockwork.Clock) *Scheduler {
	cfg := DefaultConfig()
	cfg.Clock = clock
	return New(cfg)
}

func TestScheduler_Registration(t *testing.T) {
	s := newTestScheduler(clockwork.NewFakeClock())
	every := NewIntervalSchedule(time.Minute)

	assert.ErrorIs(t, s.Register(nil, every), ErrNilJob)
	assert.ErrorIs(t, s.Register(newStubJob("a", nil), nil), ErrNilSchedule)

	require.NoError(t, s.Register(newStubJob("b", nil), every))
	require.NoError(t, s.Register(newStubJob("a", nil), every))
	assert.ErrorIs(t, s.Register(newStubJob("a", nil), every), ErrJobAlreadyExists)

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "@every 1m0s", jobs[0].Schedule)
	assert.True(t, jobs[0].Enabled)

	require.NoError(t, s.DisableJob("a"))
	info, err := s.GetJobInfo("a")
	require.NoError(t, err)
	assert.False(t, info.Enabled)
	require.NoError(t, s.EnableJob("a"))

	require.NoError(t, s.Unregister("b"))
	assert.ErrorIs(t, s.Unregister("b"), ErrJobNotFound)
	assert.ErrorIs(t, s.DisableJob("missing"), ErrJobNotFound)
	_, err = s.GetJobInfo("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(clockwork.NewFakeClock())
	boom := errors.New("boom")
	require.NoError(t, s.Register(newStubJob("ok", nil), NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(newStubJob("bad", boom), NewIntervalSchedule(time.Hour)))

	var completed []JobResult
	s.OnJobComplete(func(r JobResult) { completed = append(completed, r) })

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	res, err = s.RunNow(context.Background(), "bad")
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Success)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.Len(t, completed, 2)
	history := s.GetHistory(0)
	require.Len(t, history, 2)
	assert.Equal(t, "bad", history[1].JobName)
	assert.Len(t, s.GetHistory(1), 1)

	info, err := s.GetJobInfo("bad")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.FailCount)
	require.NotNil(t, info.LastResult)
	assert.ErrorIs(t, info.LastResult.Error, boom)
}

func TestScheduler_RunsDueJobs(t *testing.T) {
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	s := newTestScheduler(clock)

	job := newStubJob("tick", nil)
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Minute)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.ErrorIs(t, s.Start(ctx), ErrSchedulerAlreadyRunning)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(time.Minute)

	select {
	case <-job.ran:
	case <-ctx.Done():
		t.Fatal("job did not run")
	}

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)

	info, err := s.GetJobInfo("tick")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.RunCount)
	assert.Equal(t, start.Add(2*time.Minute), info.NextRun)
}

func TestIntervalSchedule(t *testing.T) {
	at := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, at.Add(30*time.Second), NewIntervalSchedule(30*time.Second).Next(at))
	assert.Equal(t, MinInterval, NewIntervalSchedule(0).Interval)
}
