package state

// ClueInput is the model-provided portion of a new clue. The reducer
// assigns the id and discovery time.
type ClueInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TurnUpdate is the canonical description of what changed in one turn.
// Optional fields are pointers: a nil field means "no change", which is
// distinct from an explicitly empty or false value. A TurnUpdate is
// ephemeral and is never persisted.
type TurnUpdate struct {
	Narrative       string     `json:"narrative"`
	NewLocation     *string    `json:"new_location,omitempty"`
	ItemAdded       *string    `json:"item_added,omitempty"`
	ItemRemoved     *string    `json:"item_removed,omitempty"`
	ClueAdded       *ClueInput `json:"clue_added,omitempty"`
	MemoryTriggered *bool      `json:"memory_triggered,omitempty"`

	// Failed marks a controller-constructed failure update. The reducer
	// records its narrative under the System speaker.
	Failed       bool   `json:"failed,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// MemoryFlash reports whether the update explicitly triggered a memory
// sequence. A nil MemoryTriggered is not a trigger.
func (u TurnUpdate) MemoryFlash() bool {
	return u.MemoryTriggered != nil && *u.MemoryTriggered
}
