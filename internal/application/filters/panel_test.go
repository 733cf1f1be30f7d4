package filters

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/contentexplore/internal/domain/entities"
	apperrors "github.com/zatekoja/contentexplore/pkg/errors"
)

// mockDefinitionProvider returns state, or err when set
type mockDefinitionProvider struct {
	state   entities.FilterState
	err     error
	calls   int32
	release chan struct{}
	// fetches that saw a cancelled ctx
	cancelled int32
}

func (m *mockDefinitionProvider) FetchFilterDefinitions(ctx context.Context) (entities.FilterState, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.release != nil {
		<-m.release
	}
	if ctx.Err() != nil {
		atomic.AddInt32(&m.cancelled, 1)
	}
	if m.err != nil {
		return entities.FilterState{}, m.err
	}
	return m.state, nil
}

func (m *mockDefinitionProvider) Calls() int {
	return int(atomic.LoadInt32(&m.calls))
}

func openPanel(t *testing.T) (*Panel, *mockDefinitionProvider) {
	t.Helper()
	provider := &mockDefinitionProvider{state: exploreState(t)}
	panel := NewPanel(provider, zerolog.Nop())
	_, err := panel.Open(context.Background())
	require.NoError(t, err)
	return panel, provider
}

func TestPanel_OpenFetchesOnce(t *testing.T) {
	panel, provider := openPanel(t)

	state, err := panel.Open(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, state.Len())
	assert.Equal(t, 1, provider.Calls())
	assert.True(t, panel.Loaded())
}

func TestPanel_ConcurrentOpenSharesFetch(t *testing.T) {
	provider := &mockDefinitionProvider{state: exploreState(t), release: make(chan struct{})}
	panel := NewPanel(provider, zerolog.Nop())

	var wg sync.WaitGroup
	var started sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, err := panel.Open(context.Background())
			assert.NoError(t, err)
		}()
	}
	started.Wait()
	assert.Eventually(t, func() bool { return provider.Calls() >= 1 }, time.Second, time.Millisecond)
	close(provider.release)
	wg.Wait()

	assert.LessOrEqual(t, provider.Calls(), 5)
	assert.True(t, panel.Loaded())
	state, err := panel.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, state.Len())
}

func TestPanel_CancelledOpenDoesNotFailSharedFetch(t *testing.T) {
	provider := &mockDefinitionProvider{state: exploreState(t), release: make(chan struct{})}
	panel := NewPanel(provider, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := panel.Open(ctx)
		first <- err
	}()
	require.Eventually(t, func() bool { return provider.Calls() == 1 }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() {
		_, err := panel.Open(context.Background())
		second <- err
	}()

	cancel()
	err := <-first
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))

	close(provider.release)
	require.NoError(t, <-second)
	assert.True(t, panel.Loaded())
	assert.Zero(t, atomic.LoadInt32(&provider.cancelled))
}

func TestPanel_FailedOpenIsRetried(t *testing.T) {
	provider := &mockDefinitionProvider{err: errors.New("connection reset")}
	panel := NewPanel(provider, zerolog.Nop())

	state, err := panel.Open(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	assert.Equal(t, 0, state.Len(), "failure renders as no filters")
	assert.False(t, panel.Loaded())

	provider.err = nil
	provider.state = exploreState(t)
	state, err = panel.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, state.Len())
	assert.Equal(t, 2, provider.Calls())
}

func TestPanel_MutationsRequireDefinitions(t *testing.T) {
	panel := NewPanel(&mockDefinitionProvider{}, zerolog.Nop())

	_, err := panel.SelectSingle("sort", "2")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestPanel_SelectSingleAppliesImmediately(t *testing.T) {
	panel, _ := openPanel(t)

	payload, err := panel.SelectSingle("sort", "3")
	require.NoError(t, err)

	assert.Equal(t, "3", payload["sort"])
	assert.Equal(t, payload, panel.Payload())
	assert.False(t, panel.Dirty())
}

func TestPanel_ToggleMultiStagesUntilApply(t *testing.T) {
	panel, _ := openPanel(t)

	require.NoError(t, panel.ToggleMulti("content_type", "1"))
	require.NoError(t, panel.ToggleMulti("content_type", "3"))

	assert.False(t, panel.IsActive("content_type"), "toggles are not applied yet")
	assert.True(t, panel.Dirty())

	payload := panel.Apply()
	assert.Equal(t, "1,3", payload["content_type"])
	assert.True(t, panel.IsActive("content_type"))
	assert.False(t, panel.Dirty())
}

func TestPanel_DiscardDropsDraft(t *testing.T) {
	panel, _ := openPanel(t)

	require.NoError(t, panel.ToggleMulti("content_type", "2"))
	panel.Discard()

	g, _ := panel.Draft().Group("content_type")
	assert.Empty(t, g.SelectedIDs())
	assert.False(t, panel.Dirty())
}

func TestPanel_ClearGroupAppliesImmediately(t *testing.T) {
	panel, _ := openPanel(t)
	require.True(t, panel.IsActive("user"))

	payload, err := panel.ClearGroup("user")
	require.NoError(t, err)

	_, ok := payload["user"]
	assert.False(t, ok)
	assert.False(t, panel.IsActive("user"))
	assert.True(t, panel.IsActive("sort"))
}
