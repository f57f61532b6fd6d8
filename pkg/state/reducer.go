package state

import (
	"bytes"
	"encoding/binary"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// PlaceholderNarrative stands in for an update that carried no text at
// all. The player always sees something.
const PlaceholderNarrative = "..."

// Entropy tags keep entry and clue ids from ever colliding with each other.
const (
	idKindEntry = 0x01
	idKindClue  = 0x02
)

// newID returns a ULID string built from the application time and a
// per-kind sequence number. The id is time-prefixed so ids sort in
// creation order, and it is a deterministic function of its inputs, which
// keeps Apply pure. Uniqueness holds because the sequence (history or
// clue count) strictly increases over a session.
func newID(now time.Time, kind byte, seq int) string {
	var entropy [10]byte
	entropy[0] = kind
	binary.BigEndian.PutUint64(entropy[2:], uint64(seq))
	return ulid.MustNew(ulid.Timestamp(now), bytes.NewReader(entropy[:])).String()
}

// Apply merges a TurnUpdate into a GameState and returns the new state.
// It is pure: the input state is never modified, and the same inputs
// always produce structurally equal outputs. It is total over any
// well-formed update; invalid field values degrade to no-ops.
//
// Merge order is fixed: narrative entry, location, item added, item
// removed, clue. No update field changes more than one state field.
func Apply(gs GameState, u TurnUpdate, now time.Time) GameState {
	next := gs.Clone()

	// 1. Narrative entry for the update text.
	entryType := EntryDescription
	if u.MemoryFlash() {
		entryType = EntryMemory
	}
	speaker := SpeakerGM
	if u.Failed {
		speaker = SpeakerSystem
	}
	text := u.Narrative
	if text == "" {
		text = PlaceholderNarrative
	}
	next.NarrativeHistory = append(next.NarrativeHistory, NarrativeEntry{
		ID:        newID(now, idKindEntry, len(gs.NarrativeHistory)),
		Speaker:   speaker,
		Text:      text,
		Type:      entryType,
		Timestamp: now,
	})

	// 2. Location change. Unknown locations are ignored, not errors.
	if u.NewLocation != nil {
		if key, ok := ResolveLocation(*u.NewLocation); ok {
			next.CurrentLocation = key
		}
	}

	// 3. Item added. Inventory has set semantics; a duplicate add is a no-op.
	if u.ItemAdded != nil {
		if item := strings.TrimSpace(*u.ItemAdded); item != "" && !slices.Contains(next.Inventory, item) {
			if next.Inventory == nil {
				next.Inventory = make([]string, 0, 1)
			}
			next.Inventory = append(next.Inventory, item)
		}
	}

	// 4. Item removed. All occurrences go; removing an absent item is a no-op.
	if u.ItemRemoved != nil {
		if item := strings.TrimSpace(*u.ItemRemoved); item != "" {
			next.Inventory = slices.DeleteFunc(next.Inventory, func(s string) bool {
				return s == item
			})
		}
	}

	// 5. New clue. The reducer owns id assignment; clues are append-only.
	if u.ClueAdded != nil && strings.TrimSpace(u.ClueAdded.Name) != "" {
		next.Clues = append(next.Clues, Clue{
			ID:           newID(now, idKindClue, len(gs.Clues)),
			Name:         u.ClueAdded.Name,
			Description:  u.ClueAdded.Description,
			DiscoveredAt: now,
		})
	}

	return next
}

// AppendPlayerEntry records the player's action in the narrative log and
// returns the new state. Like Apply, it never modifies its input.
func AppendPlayerEntry(gs GameState, action string, now time.Time) GameState {
	next := gs.Clone()
	next.NarrativeHistory = append(next.NarrativeHistory, NarrativeEntry{
		ID:        newID(now, idKindEntry, len(gs.NarrativeHistory)),
		Speaker:   SpeakerPlayer,
		Text:      action,
		Type:      EntryAction,
		Timestamp: now,
	})
	return next
}
