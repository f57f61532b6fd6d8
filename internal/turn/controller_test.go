package turn

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casefile-games/casefile/internal/services"
	"github.com/casefile-games/casefile/pkg/prompts"
	"github.com/casefile-games/casefile/pkg/state"
	"github.com/casefile-games/casefile/pkg/story"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 23, 55, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestStart_OpensSessionAndAppliesOpening(t *testing.T) {
	mock := services.NewMockStoryService().Script(
		story.TextReply("Fog rolls across the empty concourse."),
	)
	c := NewController(mock, testLogger())

	gs := c.Start(context.Background())

	require.Len(t, gs.NarrativeHistory, 1)
	assert.Equal(t, state.SpeakerGM, gs.NarrativeHistory[0].Speaker)
	assert.Equal(t, "Fog rolls across the empty concourse.", gs.NarrativeHistory[0].Text)
	assert.False(t, c.Busy())

	openCalls, turnCalls := mock.Calls()
	require.Len(t, openCalls, 1)
	assert.Equal(t, prompts.SystemInstruction, openCalls[0])
	require.Len(t, turnCalls, 1)
	assert.Equal(t, prompts.OpeningPrompt, turnCalls[0])
}

func TestStart_Idempotent(t *testing.T) {
	mock := services.NewMockStoryService().Script(story.TextReply("Opening."))
	c := NewController(mock, testLogger())

	first := c.Start(context.Background())
	second := c.Start(context.Background())

	assert.Equal(t, first, second)
	openCalls, _ := mock.Calls()
	assert.Len(t, openCalls, 1)
}

func TestStart_OpenSessionFailure(t *testing.T) {
	mock := services.NewMockStoryService()
	mock.SetOpenSessionError(errors.New("connection refused"))
	c := NewController(mock, testLogger())

	gs := c.Start(context.Background())

	require.Len(t, gs.NarrativeHistory, 1)
	assert.Equal(t, state.SpeakerSystem, gs.NarrativeHistory[0].Speaker)
	assert.Equal(t, initFailureNarrative, gs.NarrativeHistory[0].Text)
	assert.False(t, c.Busy(), "a failed init must return the controller to idle")
}

func TestSubmitAction_AfterFailedInitRepeatsConfigMessage(t *testing.T) {
	mock := services.NewMockStoryService()
	mock.SetOpenSessionError(errors.New("connection refused"))
	c := NewController(mock, testLogger())
	c.Start(context.Background())

	gs, err := c.SubmitAction(context.Background(), "look around")
	require.NoError(t, err)

	require.Len(t, gs.NarrativeHistory, 3)
	assert.Equal(t, state.SpeakerPlayer, gs.NarrativeHistory[1].Speaker)
	assert.Equal(t, "look around", gs.NarrativeHistory[1].Text)
	assert.Equal(t, initFailureNarrative, gs.NarrativeHistory[2].Text)

	_, turnCalls := mock.Calls()
	assert.Empty(t, turnCalls, "no service call without a session")
}

func TestSubmitAction_MergesStructuredUpdate(t *testing.T) {
	mock := services.NewMockStoryService().Script(
		story.TextReply("Opening."),
		story.StructuredReply("", &story.UpdatePayload{
			Narrative: "You find a rusty key.",
			ItemAdded: strptr("Rusty Key"),
			ClueAdded: &state.ClueInput{Name: "Strange Note"},
		}),
	)
	c := NewController(mock, testLogger())
	c.Start(context.Background())

	gs, err := c.SubmitAction(context.Background(), "search the desk")
	require.NoError(t, err)

	assert.Equal(t, []string{"Rusty Key"}, gs.Inventory)
	require.Len(t, gs.Clues, 1)
	assert.Equal(t, "Strange Note", gs.Clues[0].Name)

	require.Len(t, gs.NarrativeHistory, 3)
	assert.Equal(t, "search the desk", gs.NarrativeHistory[1].Text)
	assert.Equal(t, "You find a rusty key.", gs.NarrativeHistory[2].Text)

	_, turnCalls := mock.Calls()
	require.Len(t, turnCalls, 2)
	assert.Contains(t, turnCalls[1], "Player action: search the desk")
	assert.Contains(t, turnCalls[1], "```json")
}

func TestSubmitAction_RejectsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	mock := services.NewMockStoryService()
	mock.SendTurnFunc = func(ctx context.Context, message string) (story.Reply, error) {
		// Let the opening turn through; block only player turns.
		if strings.HasPrefix(message, "Player action:") {
			<-release
		}
		return story.TextReply("Eventually."), nil
	}
	c := NewController(mock, testLogger())
	c.Start(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.SubmitAction(context.Background(), "wait for the train")
		assert.NoError(t, err)
	}()

	// Wait for the first turn to reach the service.
	require.Eventually(t, c.Busy, time.Second, time.Millisecond)

	before := c.State()
	_, err := c.SubmitAction(context.Background(), "try again")
	assert.ErrorIs(t, err, ErrTurnInFlight)
	assert.Equal(t, before, c.State(), "a rejected submission must not touch the state")

	close(release)
	<-done
	assert.False(t, c.Busy())
}

func TestSubmitAction_EmptyActionIsNoOp(t *testing.T) {
	mock := services.NewMockStoryService().Script(story.TextReply("Opening."))
	c := NewController(mock, testLogger())
	before := c.Start(context.Background())

	gs, err := c.SubmitAction(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, before, gs)

	_, turnCalls := mock.Calls()
	assert.Len(t, turnCalls, 1)
}

func TestSubmitAction_ServiceFailureRecordsSystemEntry(t *testing.T) {
	mock := services.NewMockStoryService().Script(story.TextReply("Opening."))
	c := NewController(mock, testLogger())
	c.Start(context.Background())
	mock.SetSendTurnError(errors.New("boom"))

	gs, err := c.SubmitAction(context.Background(), "shout into the fog")
	require.NoError(t, err, "service failures become narrative, not errors")

	require.Len(t, gs.NarrativeHistory, 3)
	last := gs.NarrativeHistory[2]
	assert.Equal(t, state.SpeakerSystem, last.Speaker)
	assert.Equal(t, turnFailureNarrative, last.Text)
	assert.False(t, c.Busy())
}

func TestSubmitAction_TimeoutReturnsToIdle(t *testing.T) {
	mock := services.NewMockStoryService()
	mock.SendTurnFunc = func(ctx context.Context, message string) (story.Reply, error) {
		if strings.HasPrefix(message, "Player action:") {
			<-ctx.Done()
			return story.Reply{}, ctx.Err()
		}
		return story.TextReply("Opening."), nil
	}
	c := NewController(mock, testLogger()).WithTimeout(10 * time.Millisecond)
	c.Start(context.Background())

	gs, err := c.SubmitAction(context.Background(), "wait forever")
	require.NoError(t, err)

	assert.Equal(t, turnFailureNarrative, gs.NarrativeHistory[len(gs.NarrativeHistory)-1].Text)
	assert.False(t, c.Busy())
}

func TestMemoryFlashExpires(t *testing.T) {
	clock := newFakeClock()
	mock := services.NewMockStoryService().Script(
		story.TextReply("Opening."),
		story.StructuredReply("", &story.UpdatePayload{
			Narrative:       "Rain. A platform. A hand letting go of yours.",
			MemoryTriggered: boolptr(true),
		}),
	)
	c := NewController(mock, testLogger()).WithClock(clock.Now)
	c.Start(context.Background())

	assert.False(t, c.MemoryFlashActive())

	gs, err := c.SubmitAction(context.Background(), "touch the locket")
	require.NoError(t, err)
	assert.Equal(t, state.EntryMemory, gs.NarrativeHistory[2].Type)
	assert.True(t, c.MemoryFlashActive())

	clock.Advance(MemoryFlashDuration - time.Millisecond)
	assert.True(t, c.MemoryFlashActive())

	clock.Advance(2 * time.Millisecond)
	assert.False(t, c.MemoryFlashActive())
}

func TestMirror_WritesSnapshotAfterTurn(t *testing.T) {
	cache := services.NewMockCache()
	mock := services.NewMockStoryService().Script(story.TextReply("Opening."))
	c := NewController(mock, testLogger()).WithCache(cache)

	gs := c.Start(context.Background())

	require.Len(t, cache.SetCalls, 1)
	call := cache.SetCalls[0]
	assert.Equal(t, mirrorKeyPrefix+gs.ID.String(), call.Key)
	assert.Equal(t, mirrorTTL, call.Expiration)

	var mirrored state.GameState
	require.NoError(t, json.Unmarshal([]byte(call.Value.(string)), &mirrored))
	assert.Equal(t, gs.ID, mirrored.ID)
	assert.Equal(t, gs.CurrentLocation, mirrored.CurrentLocation)
}

func TestMirror_FailureDoesNotFailTurn(t *testing.T) {
	cache := services.NewMockCache()
	cache.SetFunc = func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
		return errors.New("redis down")
	}
	mock := services.NewMockStoryService().Script(story.TextReply("Opening."))
	c := NewController(mock, testLogger()).WithCache(cache)

	gs := c.Start(context.Background())

	require.Len(t, gs.NarrativeHistory, 1)
	assert.Equal(t, "Opening.", gs.NarrativeHistory[0].Text)
}

func TestState_ReturnsIndependentSnapshot(t *testing.T) {
	mock := services.NewMockStoryService().Script(story.TextReply("Opening."))
	c := NewController(mock, testLogger())
	c.Start(context.Background())

	snap := c.State()
	snap.NarrativeHistory[0].Text = "tampered"

	assert.Equal(t, "Opening.", c.State().NarrativeHistory[0].Text)
}
