package sampler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/roman-kulish/wifi-survey/internal/provider"
	"github.com/roman-kulish/wifi-survey/internal/survey"
)

var testFix = survey.Fix{Latitude: 10, Longitude: 20, Accuracy: 5, Provider: "gps"}

func TestRun_TicksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	outcomes := make(chan Outcome, 16)
	s := New(DefaultChain(fixedLocation(testFix)), fixedScan(entry("a", -40)), &memoryStore{},
		WithInterval(20*time.Millisecond),
		WithObserver(func(o Outcome) { outcomes <- o }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case o := <-outcomes:
			assert.Equal(t, OutcomeInserted, o.Kind)
		case <-time.After(5 * time.Second):
			t.Fatalf("tick %d did not happen", i+1)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_FirstTickIsImmediate(t *testing.T) {
	defer goleak.VerifyNone(t)

	outcomes := make(chan Outcome, 1)
	s := New(DefaultChain(fixedLocation(testFix)), fixedScan(entry("a", -40)), &memoryStore{},
		WithInterval(time.Hour),
		WithObserver(func(o Outcome) { outcomes <- o }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-outcomes:
	case <-time.After(5 * time.Second):
		t.Fatal("first tick did not run immediately")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestRun_CancellationDoesNotInterruptTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var tickCtxErr error

	location := locationFunc(func(ctx context.Context, _ provider.Mode) (*survey.Fix, error) {
		close(entered)
		<-release
		tickCtxErr = ctx.Err()
		f := testFix
		return &f, nil
	})

	outcomes := make(chan Outcome, 1)
	store := &memoryStore{}
	s := New(DefaultChain(location), fixedScan(entry("a", -40)), store,
		WithInterval(time.Hour),
		WithObserver(func(o Outcome) { outcomes <- o }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	<-entered
	cancel()

	select {
	case <-done:
		t.Fatal("Run returned in the middle of a tick")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)

	assert.NoError(t, tickCtxErr)
	o := <-outcomes
	assert.Equal(t, OutcomeInserted, o.Kind)
	assert.Len(t, store.Batches(), 1)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &memoryStore{}
	s := New(DefaultChain(fixedLocation(testFix)), fixedScan(entry("a", -40)), store)
	require.NoError(t, s.Run(ctx))
	assert.Empty(t, store.Batches())
}

func TestRun_AlreadyRunning(t *testing.T) {
	defer goleak.VerifyNone(t)

	outcomes := make(chan Outcome, 1)
	s := New(DefaultChain(fixedLocation(testFix)), fixedScan(entry("a", -40)), &memoryStore{},
		WithInterval(time.Hour),
		WithObserver(func(o Outcome) { outcomes <- o }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	<-outcomes

	assert.ErrorIs(t, s.Run(ctx), ErrAlreadyRunning)

	cancel()
	require.NoError(t, <-done)
}
