package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"laser-offers/internal/service/offercalc"
	"laser-offers/internal/storage"
)

type MockOperationProvider struct {
	mock.Mock
}

func (m *MockOperationProvider) GetOperationsByCategory(ctx context.Context, categoryID string) ([]storage.Operation, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Operation), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var cutOps = []storage.Operation{
	{ID: "laser", CategoryID: "cut", Name: "Taglio laser", SecondsPerUnit: 30, IsActive: true},
	{ID: "deburr", CategoryID: "cut", Name: "Sbavatura", SecondsPerUnit: 4.5, IsActive: true},
}

func TestCache_LoadFetchesOnce(t *testing.T) {
	provider := new(MockOperationProvider)
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(cutOps, nil).Once()

	c := New(discardLogger(), provider, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ops, err := c.Load(context.Background(), "cut")
			assert.NoError(t, err)
			assert.Len(t, ops, 2)
		}()
	}
	wg.Wait()

	ops, err := c.Load(context.Background(), "cut")
	require.NoError(t, err)
	assert.Equal(t, cutOps, ops)
	provider.AssertNumberOfCalls(t, "GetOperationsByCategory", 1)
}

func TestCache_LoadErrorIsRetried(t *testing.T) {
	provider := new(MockOperationProvider)
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(nil, errors.New("db down")).Once()
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(cutOps, nil).Once()

	c := New(discardLogger(), provider, time.Second)

	_, err := c.Load(context.Background(), "cut")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	ops, err := c.Load(context.Background(), "cut")
	require.NoError(t, err)
	assert.Len(t, ops, 2)
}

func TestCache_SecondsPerUnit(t *testing.T) {
	provider := new(MockOperationProvider)
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(cutOps, nil).Once()

	c := New(discardLogger(), provider, time.Second)

	_, ok := c.SecondsPerUnit("cut", "laser")
	assert.False(t, ok, "category is not cached yet")

	assert.Eventually(t, func() bool {
		_, ok := c.Operations("cut")
		return ok
	}, time.Second, 5*time.Millisecond)

	secs, ok := c.SecondsPerUnit("cut", "deburr")
	assert.True(t, ok)
	assert.Equal(t, 4.5, secs)

	_, ok = c.SecondsPerUnit("cut", "missing")
	assert.False(t, ok)

	_, ok = c.SecondsPerUnit("", "laser")
	assert.False(t, ok)
}

func TestCache_AwaitFiresAfterLoad(t *testing.T) {
	provider := new(MockOperationProvider)
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(cutOps, nil).Once()

	c := New(discardLogger(), provider, time.Second)

	done := make(chan struct{})
	c.Await("cut", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was not called")
	}

	again := make(chan struct{})
	c.Await("cut", func() { close(again) })

	select {
	case <-again:
	case <-time.After(time.Second):
		t.Fatal("waiter on cached category was not called")
	}
	provider.AssertNumberOfCalls(t, "GetOperationsByCategory", 1)
}

func TestCache_Invalidate(t *testing.T) {
	provider := new(MockOperationProvider)
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(cutOps, nil).Once()
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(cutOps[:1], nil).Once()

	c := New(discardLogger(), provider, time.Second)

	_, err := c.Load(context.Background(), "cut")
	require.NoError(t, err)

	c.Invalidate("cut")
	_, ok := c.Operations("cut")
	assert.False(t, ok)

	ops, err := c.Load(context.Background(), "cut")
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestCache_Reset(t *testing.T) {
	provider := new(MockOperationProvider)
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(cutOps, nil).Twice()

	c := New(discardLogger(), provider, time.Second)

	_, err := c.Load(context.Background(), "cut")
	require.NoError(t, err)

	c.Reset()
	_, ok := c.Operations("cut")
	assert.False(t, ok)

	_, err = c.Load(context.Background(), "cut")
	require.NoError(t, err)
	provider.AssertNumberOfCalls(t, "GetOperationsByCategory", 2)
}

func TestCache_DropsFetchOverlappingInvalidation(t *testing.T) {
	edited := []storage.Operation{{ID: "laser", CategoryID: "cut", SecondsPerUnit: 40, IsActive: true}}

	tests := []struct {
		name string
		drop func(c *Cache)
	}{
		{name: "invalidate", drop: func(c *Cache) { c.Invalidate("cut") }},
		{name: "reset", drop: func(c *Cache) { c.Reset() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			started := make(chan struct{})
			unblock := make(chan struct{})

			provider := new(MockOperationProvider)
			provider.On("GetOperationsByCategory", mock.Anything, "cut").
				Run(func(mock.Arguments) {
					close(started)
					<-unblock
				}).
				Return(cutOps, nil).Once()
			provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(edited, nil).Once()

			c := New(discardLogger(), provider, time.Second)

			fetched := make(chan struct{})
			go func() {
				_, err := c.Load(context.Background(), "cut")
				assert.NoError(t, err)
				close(fetched)
			}()

			<-started
			tt.drop(c)
			close(unblock)
			<-fetched

			_, ok := c.Operations("cut")
			assert.False(t, ok, "pre-edit catalog must not be cached")

			_, err := c.Load(context.Background(), "cut")
			require.NoError(t, err)

			secs, ok := c.SecondsPerUnit("cut", "laser")
			assert.True(t, ok)
			assert.Equal(t, 40.0, secs)
			provider.AssertNumberOfCalls(t, "GetOperationsByCategory", 2)
		})
	}
}

func TestCache_AwaitReleasedOnFetchError(t *testing.T) {
	provider := new(MockOperationProvider)
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(nil, errors.New("db down"))

	c := New(discardLogger(), provider, time.Second)

	done := make(chan struct{})
	c.Await("cut", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was not released after a failed fetch")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Empty(t, c.waiters["cut"])
	_, cached := c.entries["cut"]
	assert.False(t, cached)
}

func TestCache_DrivesEditorDeferredLookup(t *testing.T) {
	provider := new(MockOperationProvider)
	provider.On("GetOperationsByCategory", mock.Anything, "cut").Return(cutOps, nil).Once()

	c := New(discardLogger(), provider, time.Second)
	e := offercalc.NewEditor(c, offercalc.Inputs{PieceCount: 100}, nil)

	key := e.AddLine()
	require.NoError(t, e.SetCategory(key, "cut"))
	require.NoError(t, e.SetOperation(key, "laser"))

	assert.Eventually(t, func() bool {
		line, err := e.Line(key)
		return err == nil && line.SecondsPerUnit == 30 && line.UnitCount == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, e.SetUnitCount(key, 2))
	_, d := e.Snapshot()
	assert.InDelta(t, 72.0, d.ProductionTimePerBatch, 1e-9)
}
