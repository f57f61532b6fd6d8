package story

import (
	"github.com/casefile-games/casefile/pkg/state"
	"github.com/casefile-games/casefile/pkg/textfilter"
)

// Normalize converts a raw service reply into exactly one TurnUpdate. It
// never fails: a structured call is copied field for field, plain text
// degrades to a narrative-only update, and anything else becomes a
// placeholder narrative.
func Normalize(r Reply) state.TurnUpdate {
	switch r.Kind {
	case ReplyStructured:
		if r.Update == nil {
			// Malformed structured reply; fall back to its text, if any.
			return Normalize(TextReply(r.Text))
		}
		u := state.TurnUpdate{
			Narrative:       textfilter.CleanNarration(r.Update.Narrative),
			NewLocation:     r.Update.NewLocation,
			ItemAdded:       r.Update.ItemAdded,
			ItemRemoved:     r.Update.ItemRemoved,
			ClueAdded:       r.Update.ClueAdded,
			MemoryTriggered: r.Update.MemoryTriggered,
		}
		if u.Narrative == "" {
			// The call carried no narration; use any surrounding text.
			u.Narrative = textfilter.CleanNarration(r.Text)
		}
		return u

	case ReplyText:
		text := textfilter.CleanNarration(r.Text)
		if text == "" {
			return state.TurnUpdate{Narrative: state.PlaceholderNarrative}
		}
		return state.TurnUpdate{Narrative: text}

	default:
		return state.TurnUpdate{Narrative: state.PlaceholderNarrative}
	}
}

// FailureUpdate builds the update a controller applies when the service
// itself failed. The message is the user-facing narrative.
func FailureUpdate(msg string) state.TurnUpdate {
	return state.TurnUpdate{
		Narrative:    msg,
		Failed:       true,
		ErrorMessage: msg,
	}
}
