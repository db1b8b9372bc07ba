package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"cryptovest/internal/investment"
	"cryptovest/internal/lock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockMaturer is a mock implementation of Maturer.
type MockMaturer struct {
	mock.Mock
}

func (m *MockMaturer) MatureInvestments(ctx context.Context) (*investment.MaturityReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*investment.MaturityReport)
	return report, args.Error(1)
}

// fakeLocker grants leases unless held, and records releases.
type fakeLocker struct {
	held       bool
	acquireErr error
	released   int
}

func (f *fakeLocker) Acquire(context.Context, string, time.Duration) (lock.Lease, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	if f.held {
		return nil, lock.ErrNotAcquired
	}
	f.held = true
	return f, nil
}

func (f *fakeLocker) Release(context.Context) error {
	f.held = false
	f.released++
	return nil
}

func TestMaturityJob_Run(t *testing.T) {
	maturer := new(MockMaturer)
	locker := &fakeLocker{}
	job := NewMaturityJob(maturer, locker, "cryptovest:maturity", time.Minute, zap.NewNop())

	expected := &investment.MaturityReport{Updated: 2}
	maturer.On("MatureInvestments", mock.Anything).Return(expected, nil).Once()

	report, err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, expected, report)
	assert.Equal(t, 1, locker.released)
	assert.False(t, locker.held)
	maturer.AssertExpectations(t)
}

func TestMaturityJob_SkipsWhenLockHeld(t *testing.T) {
	maturer := new(MockMaturer)
	locker := &fakeLocker{held: true}
	job := NewMaturityJob(maturer, locker, "cryptovest:maturity", time.Minute, zap.NewNop())

	report, err := job.Run(context.Background())

	assert.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, 0, locker.released)
	maturer.AssertNotCalled(t, "MatureInvestments", mock.Anything)
}

func TestMaturityJob_Errors(t *testing.T) {
	t.Run("lock store failure", func(t *testing.T) {
		maturer := new(MockMaturer)
		locker := &fakeLocker{acquireErr: errors.New("redis down")}
		job := NewMaturityJob(maturer, locker, "k", time.Minute, zap.NewNop())

		_, err := job.Run(context.Background())

		assert.ErrorContains(t, err, "redis down")
		maturer.AssertNotCalled(t, "MatureInvestments", mock.Anything)
	})

	t.Run("sweep failure still releases", func(t *testing.T) {
		maturer := new(MockMaturer)
		locker := &fakeLocker{}
		job := NewMaturityJob(maturer, locker, "k", time.Minute, zap.NewNop())
		maturer.On("MatureInvestments", mock.Anything).Return(nil, errors.New("db gone")).Once()

		_, err := job.Run(context.Background())

		assert.ErrorContains(t, err, "db gone")
		assert.Equal(t, 1, locker.released)
	})
}

func TestMaturityJob_TickLogsErrors(t *testing.T) {
	maturer := new(MockMaturer)
	job := NewMaturityJob(maturer, lock.NopLocker{}, "k", time.Minute, zap.NewNop())
	maturer.On("MatureInvestments", mock.Anything).Return(nil, errors.New("boom")).Once()

	assert.NotPanics(t, func() { job.Tick(context.Background()) })
	maturer.AssertExpectations(t)
}

func TestRunner(t *testing.T) {
	t.Run("rejects invalid schedule", func(t *testing.T) {
		r := NewRunner(context.Background(), zap.NewNop())
		_, err := r.Add("not a schedule", func(context.Context) {})
		assert.Error(t, err)
	})

	t.Run("fires jobs with the base context", func(t *testing.T) {
		type ctxKey struct{}
		base := context.WithValue(context.Background(), ctxKey{}, "base")
		r := NewRunner(base, zap.NewNop())

		fired := make(chan string, 1)
		_, err := r.Add("* * * * * *", func(ctx context.Context) {
			v, _ := ctx.Value(ctxKey{}).(string)
			select {
			case fired <- v:
			default:
			}
		})
		require.NoError(t, err)

		r.Start()
		defer r.Stop()

		select {
		case v := <-fired:
			assert.Equal(t, "base", v)
		case <-time.After(3 * time.Second):
			t.Fatal("job did not fire")
		}
	})

	t.Run("skips jobs once the base context is done", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := NewRunner(ctx, zap.NewNop())

		fired := make(chan struct{}, 1)
		_, err := r.Add("* * * * * *", func(context.Context) { fired <- struct{}{} })
		require.NoError(t, err)

		r.Start()
		defer r.Stop()

		select {
		case <-fired:
			t.Fatal("job ran after cancellation")
		case <-time.After(1500 * time.Millisecond):
		}
	})
}
