// Package story defines the boundary types for the external story
// service: the shape of a raw reply and the structured-update schema the
// model is asked to call. Downstream code never inspects untyped fields;
// the reply kind is decided once, at the service adapter.
package story

import "github.com/casefile-games/casefile/pkg/state"

// ReplyKind discriminates the reply union.
type ReplyKind int

const (
	// ReplyEmpty is a reply with no usable content.
	ReplyEmpty ReplyKind = iota
	// ReplyText carries narrative text only.
	ReplyText
	// ReplyStructured carries a structured update call, possibly with
	// accompanying narrative text.
	ReplyStructured
)

// UpdatePayload is the structured-call payload produced by the model.
// Optional fields are pointers so that an absent field is distinguishable
// from an explicitly empty one.
type UpdatePayload struct {
	Narrative       string           `json:"narrative,omitempty"`
	NewLocation     *string          `json:"new_location,omitempty"`
	ItemAdded       *string          `json:"item_added,omitempty"`
	ItemRemoved     *string          `json:"item_removed,omitempty"`
	ClueAdded       *state.ClueInput `json:"clue_added,omitempty"`
	MemoryTriggered *bool            `json:"memory_triggered,omitempty"`
}

// Reply is the normalized form of one raw service response.
type Reply struct {
	Kind   ReplyKind
	Text   string
	Update *UpdatePayload
}

// TextReply builds a text-only reply.
func TextReply(text string) Reply {
	return Reply{Kind: ReplyText, Text: text}
}

// StructuredReply builds a structured reply with optional surrounding text.
func StructuredReply(text string, u *UpdatePayload) Reply {
	return Reply{Kind: ReplyStructured, Text: text, Update: u}
}

// EmptyReply builds an empty reply.
func EmptyReply() Reply {
	return Reply{Kind: ReplyEmpty}
}
