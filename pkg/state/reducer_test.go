package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func testTime() time.Time {
	return time.Date(2026, 3, 14, 23, 55, 0, 0, time.UTC)
}

func TestApply_Pure(t *testing.T) {
	gs := NewGameState()
	gs.Inventory = []string{"Pocket Watch"}
	gs = Apply(gs, TurnUpdate{Narrative: "The clock strikes."}, testTime())

	update := TurnUpdate{
		Narrative:   "You pick up the lantern.",
		ItemAdded:   strptr("Lantern"),
		NewLocation: strptr(LocationSignalBox),
		ClueAdded:   &ClueInput{Name: "Scratched Lens", Description: "The lantern glass is scored."},
	}

	before := gs.Clone()
	now := testTime().Add(time.Minute)

	first := Apply(gs, update, now)
	second := Apply(gs, update, now)

	assert.Equal(t, first, second, "same inputs must produce structurally equal outputs")
	assert.Equal(t, before, gs, "input state must be left untouched")
}

func TestApply_NoOpUpdateAppendsOnlyNarrative(t *testing.T) {
	gs := NewGameState()
	gs.Inventory = []string{"Ticket Stub"}

	next := Apply(gs, TurnUpdate{Narrative: "Nothing moves."}, testTime())

	require.Len(t, next.NarrativeHistory, 1)
	entry := next.NarrativeHistory[0]
	assert.Equal(t, SpeakerGM, entry.Speaker)
	assert.Equal(t, EntryDescription, entry.Type)
	assert.Equal(t, "Nothing moves.", entry.Text)
	assert.Equal(t, testTime(), entry.Timestamp)

	assert.Equal(t, gs.CurrentLocation, next.CurrentLocation)
	assert.Equal(t, gs.Inventory, next.Inventory)
	assert.Equal(t, gs.Clues, next.Clues)
	assert.Equal(t, gs.Trust, next.Trust)
	assert.Equal(t, gs.Phase, next.Phase)
	assert.Nil(t, next.Puzzle)
}

func TestApply_InventorySetSemantics(t *testing.T) {
	gs := NewGameState()
	now := testTime()

	gs = Apply(gs, TurnUpdate{Narrative: "A key.", ItemAdded: strptr("Key")}, now)
	gs = Apply(gs, TurnUpdate{Narrative: "The same key.", ItemAdded: strptr("Key")}, now.Add(time.Second))

	assert.Equal(t, []string{"Key"}, gs.Inventory, "duplicate add must be a no-op")
}

func TestApply_RemoveAbsentItem(t *testing.T) {
	gs := NewGameState()
	gs.Inventory = []string{"Matchbook"}

	next := Apply(gs, TurnUpdate{Narrative: "You pat your pockets.", ItemRemoved: strptr("Ghost")}, testTime())

	assert.Equal(t, []string{"Matchbook"}, next.Inventory)
}

func TestApply_RemoveAllOccurrences(t *testing.T) {
	gs := NewGameState()
	// Duplicates cannot arise through Apply; seed them directly to
	// check removal clears every occurrence anyway.
	gs.Inventory = []string{"Coin", "Coin", "Matchbook"}

	next := Apply(gs, TurnUpdate{Narrative: "You spend the coins.", ItemRemoved: strptr("Coin")}, testTime())

	assert.Equal(t, []string{"Matchbook"}, next.Inventory)
}

func TestApply_EmptyItemNameIgnored(t *testing.T) {
	gs := NewGameState()

	next := Apply(gs, TurnUpdate{
		Narrative:   "Something glints, then is gone.",
		ItemAdded:   strptr("  "),
		ItemRemoved: strptr(""),
	}, testTime())

	assert.Empty(t, next.Inventory)
}

func TestApply_ClueMonotonicity(t *testing.T) {
	gs := NewGameState()
	now := testTime()

	updates := []TurnUpdate{
		{Narrative: "A note.", ClueAdded: &ClueInput{Name: "Strange Note", Description: "Written in haste."}},
		{Narrative: "Nothing here."},
		{Narrative: "A timetable.", ClueAdded: &ClueInput{Name: "Altered Timetable"}},
		{Narrative: "You leave.", NewLocation: strptr(LocationWaitingRoom)},
	}

	for i, u := range updates {
		prevLen := len(gs.Clues)
		prevClues := append([]Clue{}, gs.Clues...)

		gs = Apply(gs, u, now.Add(time.Duration(i)*time.Minute))

		require.GreaterOrEqual(t, len(gs.Clues), prevLen, "clues must never shrink")
		assert.Equal(t, prevClues, gs.Clues[:prevLen], "existing clues must never change")
	}

	require.Len(t, gs.Clues, 2)
	assert.Equal(t, "Strange Note", gs.Clues[0].Name)
	assert.Equal(t, "Altered Timetable", gs.Clues[1].Name)
	assert.NotEqual(t, gs.Clues[0].ID, gs.Clues[1].ID)
	assert.Less(t, gs.Clues[0].ID, gs.Clues[1].ID, "clue ids sort in discovery order")
}

func TestApply_InvalidLocationRejected(t *testing.T) {
	gs := NewGameState()

	next := Apply(gs, TurnUpdate{Narrative: "You dream of the sea.", NewLocation: strptr("atlantis")}, testTime())

	assert.Equal(t, LocationStation, next.CurrentLocation)
}

func TestApply_LocationDisplayNameResolved(t *testing.T) {
	gs := NewGameState()

	next := Apply(gs, TurnUpdate{Narrative: "You climb the stairs.", NewLocation: strptr("Signal Box")}, testTime())

	assert.Equal(t, LocationSignalBox, next.CurrentLocation)
}

func TestApply_MemoryEntryType(t *testing.T) {
	gs := NewGameState()

	update := TurnUpdate{
		Narrative:       "Rain. A platform. A hand letting go of yours.",
		MemoryTriggered: boolptr(true),
	}
	next := Apply(gs, update, testTime())

	require.Len(t, next.NarrativeHistory, 1)
	assert.Equal(t, EntryMemory, next.NarrativeHistory[0].Type)
	assert.Equal(t, SpeakerGM, next.NarrativeHistory[0].Speaker)

	// Everything else is unchanged.
	assert.Equal(t, gs.CurrentLocation, next.CurrentLocation)
	assert.Equal(t, gs.Inventory, next.Inventory)
	assert.Equal(t, gs.Clues, next.Clues)
}

func TestApply_AbsentMemoryFlagIsNotATrigger(t *testing.T) {
	falseFlag := Apply(NewGameState(), TurnUpdate{Narrative: "x", MemoryTriggered: boolptr(false)}, testTime())
	absent := Apply(NewGameState(), TurnUpdate{Narrative: "x"}, testTime())

	assert.Equal(t, EntryDescription, falseFlag.NarrativeHistory[0].Type)
	assert.Equal(t, EntryDescription, absent.NarrativeHistory[0].Type)
}

func TestApply_FailureUpdateUsesSystemSpeaker(t *testing.T) {
	gs := NewGameState()

	next := Apply(gs, TurnUpdate{Narrative: "The line is dead.", Failed: true}, testTime())

	require.Len(t, next.NarrativeHistory, 1)
	assert.Equal(t, SpeakerSystem, next.NarrativeHistory[0].Speaker)
}

func TestApply_EmptyNarrativeGetsPlaceholder(t *testing.T) {
	next := Apply(NewGameState(), TurnUpdate{}, testTime())

	require.Len(t, next.NarrativeHistory, 1)
	assert.Equal(t, PlaceholderNarrative, next.NarrativeHistory[0].Text)
}

func TestApply_EndToEndMerge(t *testing.T) {
	gs := NewGameState()
	require.Equal(t, LocationStation, gs.CurrentLocation)
	require.Empty(t, gs.Inventory)
	require.Empty(t, gs.Clues)

	now := testTime()
	gs = AppendPlayerEntry(gs, "search the desk", now)

	update := TurnUpdate{
		Narrative: "You find a rusty key.",
		ItemAdded: strptr("Rusty Key"),
		ClueAdded: &ClueInput{Name: "Strange Note", Description: "Tucked under the blotter."},
	}
	gs = Apply(gs, update, now.Add(2*time.Second))

	assert.Equal(t, []string{"Rusty Key"}, gs.Inventory)
	require.Len(t, gs.Clues, 1)
	assert.Equal(t, "Strange Note", gs.Clues[0].Name)

	require.Len(t, gs.NarrativeHistory, 2)
	assert.Equal(t, SpeakerPlayer, gs.NarrativeHistory[0].Speaker)
	assert.Equal(t, EntryAction, gs.NarrativeHistory[0].Type)
	assert.Equal(t, "search the desk", gs.NarrativeHistory[0].Text)
	assert.Equal(t, SpeakerGM, gs.NarrativeHistory[1].Speaker)
	assert.Equal(t, "You find a rusty key.", gs.NarrativeHistory[1].Text)
}

func TestAppendPlayerEntry_Pure(t *testing.T) {
	gs := NewGameState()
	before := gs.Clone()

	next := AppendPlayerEntry(gs, "knock on the office door", testTime())

	assert.Equal(t, before, gs)
	require.Len(t, next.NarrativeHistory, 1)
	assert.Equal(t, SpeakerPlayer, next.NarrativeHistory[0].Speaker)
}

func TestApply_EntryIDsUnique(t *testing.T) {
	gs := NewGameState()
	now := testTime()

	for i := 0; i < 5; i++ {
		gs = Apply(gs, TurnUpdate{Narrative: "tick"}, now)
	}

	seen := make(map[string]bool)
	for _, e := range gs.NarrativeHistory {
		assert.False(t, seen[e.ID], "entry id %q repeated", e.ID)
		seen[e.ID] = true
	}
}
