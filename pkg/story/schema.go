package story

import "github.com/casefile-games/casefile/pkg/state"

// UpdateToolName is the name of the structured-output tool the model is
// asked to call when a turn changes game state.
const UpdateToolName = "update_game"

// UpdateToolDescription explains the tool to the model.
const UpdateToolDescription = "Record the concrete effects of the player's turn: narration plus " +
	"any location change, inventory change, new clue, or memory flashback. " +
	"Call this whenever the turn changes game state; reply with plain text when nothing changes."

// UpdateToolSchema returns the JSON schema for the structured update
// call, matching UpdatePayload field for field.
func UpdateToolSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"narrative": map[string]interface{}{
				"type":        "string",
				"description": "The narration shown to the player for this turn.",
			},
			"new_location": map[string]interface{}{
				"type":        "string",
				"description": "The player's new location, if they moved.",
				"enum":        state.Locations(),
			},
			"item_added": map[string]interface{}{
				"type":        "string",
				"description": "Name of an item the player gained.",
			},
			"item_removed": map[string]interface{}{
				"type":        "string",
				"description": "Name of an item the player lost or used up.",
			},
			"clue_added": map[string]interface{}{
				"type":        "object",
				"description": "A clue the player discovered this turn.",
				"properties": map[string]interface{}{
					"name":        map[string]interface{}{"type": "string"},
					"description": map[string]interface{}{"type": "string"},
				},
				"required": []string{"name"},
			},
			"memory_triggered": map[string]interface{}{
				"type":        "boolean",
				"description": "True when the turn triggers a flashback sequence.",
			},
		},
		"required": []string{"narrative"},
	}
}
