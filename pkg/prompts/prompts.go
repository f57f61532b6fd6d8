// Package prompts builds everything sent to the story service: the fixed
// session-scoped system instruction, the opening prompt, and the per-turn
// message carrying the player action with a game-state grounding block.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/casefile-games/casefile/pkg/state"
	"github.com/casefile-games/casefile/pkg/story"
)

// SystemInstruction is the fixed, session-scoped instruction given to the
// model when the session is opened.
const SystemInstruction = `You are the game master of "The Last Train", a noir mystery adventure.

Setting: Harwick Junction, a fogbound railway station, just after the last
train of the night has failed to arrive. The player is a detective trying
to work out what happened to it.

Cast: ` + state.CharacterHale + ` (guarded, hiding something about the timetable), ` +
	state.CharacterWren + ` (nervous, saw something on platform nine), and ` +
	state.CharacterMarlow + ` (official, not everything he says is true).

Locations the player may visit: station, ticket_office, waiting_room,
platform_nine, signal_box, luggage_room, stationmasters_office. Never move
the player anywhere else.

Rules:
- Keep narration to a few atmospheric paragraphs per turn.
- When a turn changes game state (movement, items, clues, flashbacks),
  call the ` + story.UpdateToolName + ` tool with the concrete effects.
- When nothing changes, reply with plain narration instead.
- Memory flashbacks are rare and significant; set memory_triggered only
  when the detective is overwhelmed by a recovered memory.
- Each turn message includes a JSON snapshot of the current game state.
  Treat it as ground truth for inventory, location, and clues.`

// OpeningPrompt starts the story. It is sent once, before any player
// input is accepted, with no state context.
const OpeningPrompt = `Open the story. The detective has just arrived at Harwick Junction ` +
	`to find the last train missing and the station nearly deserted. ` +
	`Set the scene on the station concourse and hint at where to begin.`

// promptState is the grounding snapshot serialized into each turn
// message. The service keeps its own conversation memory; this block is
// supplementary grounding, not the source of truth.
type promptState struct {
	Location  string         `json:"location"`
	Inventory []string       `json:"inventory"`
	Clues     []string       `json:"clues"`
	Trust     map[string]int `json:"trust"`
}

// Builder constructs the per-turn message using a fluent interface.
type Builder struct {
	gs     *state.GameState
	action string
}

// New creates a new prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithState sets the game state snapshot to ground the turn in.
func (b *Builder) WithState(gs state.GameState) *Builder {
	b.gs = &gs
	return b
}

// WithAction sets the raw player action text.
func (b *Builder) WithAction(action string) *Builder {
	b.action = action
	return b
}

// Build returns the final turn message.
func (b *Builder) Build() (string, error) {
	if b.gs == nil {
		return "", fmt.Errorf("game state is required")
	}
	if strings.TrimSpace(b.action) == "" {
		return "", fmt.Errorf("player action is required")
	}

	clueNames := make([]string, 0, len(b.gs.Clues))
	for _, c := range b.gs.Clues {
		clueNames = append(clueNames, c.Name)
	}

	snapshot := promptState{
		Location:  b.gs.CurrentLocation,
		Inventory: b.gs.Inventory,
		Clues:     clueNames,
		Trust:     b.gs.Trust,
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state snapshot: %w", err)
	}

	var msg strings.Builder
	msg.WriteString("Player action: ")
	msg.WriteString(b.action)
	msg.WriteString("\n\nCurrent game state:\n```json\n")
	msg.Write(data)
	msg.WriteString("\n```")
	return msg.String(), nil
}
