package state

import (
	"time"

	"github.com/google/uuid"
)

// Speaker identities for narrative entries. GM is the narrator; System is
// used for out-of-fiction messages such as turn failures.
const (
	SpeakerGM     = "GM"
	SpeakerSystem = "System"
	SpeakerPlayer = "You"
)

// Named cast of the scenario. Trust is tracked per character.
const (
	CharacterHale   = "Stationmaster Hale"
	CharacterWren   = "Porter Wren"
	CharacterMarlow = "Inspector Marlow"
)

// Narrative entry types.
const (
	EntryDescription = "description"
	EntryDialogue    = "dialogue"
	EntryAction      = "action"
	EntryMemory      = "memory"
)

// Game phases. The turn merge logic does not drive phase transitions;
// the field is carried for forward compatibility.
const (
	PhaseStart   = "start"
	PhasePlaying = "playing"
	PhasePuzzle  = "puzzle"
	PhaseMemory  = "memory"
	PhaseEnding  = "ending"
)

// Clue is a discovered piece of evidence. Clues are created only by the
// reducer, are never mutated, and are never removed.
type Clue struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// NarrativeEntry is one line of the turn log. The log is append-only.
type NarrativeEntry struct {
	ID        string    `json:"id"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Puzzle describes an active puzzle, if any. No code path in the turn
// merge sets or clears it.
type Puzzle struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// GameState is the complete state of one mystery session. It is updated
// only through the pure functions in this package; callers hold and pass
// it by value.
type GameState struct {
	ID               uuid.UUID        `json:"id"`
	CurrentLocation  string           `json:"current_location"`
	Inventory        []string         `json:"inventory,omitempty"`
	Clues            []Clue           `json:"clues,omitempty"`
	NarrativeHistory []NarrativeEntry `json:"narrative_history,omitempty"`
	Phase            string           `json:"phase"`
	Trust            map[string]int   `json:"trust,omitempty"`
	Puzzle           *Puzzle          `json:"puzzle,omitempty"`
}

// NewGameState returns the opening state of a session: the player on the
// station concourse, empty-handed, with the cast at their seed trust levels.
func NewGameState() GameState {
	return GameState{
		ID:              uuid.New(),
		CurrentLocation: LocationStation,
		Inventory:       make([]string, 0),
		Clues:           make([]Clue, 0),
		NarrativeHistory: make([]NarrativeEntry, 0),
		Phase:           PhaseStart,
		Trust: map[string]int{
			CharacterHale:   50,
			CharacterWren:   40,
			CharacterMarlow: 60,
		},
	}
}

// Clone returns a deep copy. Slices and maps are copied so that mutations
// of the clone never reach the original.
func (gs GameState) Clone() GameState {
	out := gs

	if gs.Inventory != nil {
		out.Inventory = make([]string, len(gs.Inventory))
		copy(out.Inventory, gs.Inventory)
	}
	if gs.Clues != nil {
		out.Clues = make([]Clue, len(gs.Clues))
		copy(out.Clues, gs.Clues)
	}
	if gs.NarrativeHistory != nil {
		out.NarrativeHistory = make([]NarrativeEntry, len(gs.NarrativeHistory))
		copy(out.NarrativeHistory, gs.NarrativeHistory)
	}
	if gs.Trust != nil {
		out.Trust = make(map[string]int, len(gs.Trust))
		for k, v := range gs.Trust {
			out.Trust[k] = v
		}
	}
	if gs.Puzzle != nil {
		p := *gs.Puzzle
		out.Puzzle = &p
	}
	return out
}
