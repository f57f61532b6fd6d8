package services

import (
	"context"

	"github.com/casefile-games/casefile/pkg/story"
)

// StoryService is the boundary to the external generative model. A
// session is opened once per game and reused for every turn.
type StoryService interface {
	// OpenSession establishes a story session bound to a fixed system
	// instruction. It fails when the service is misconfigured, e.g. a
	// missing credential.
	OpenSession(ctx context.Context, systemInstruction string) (StorySession, error)
}

// StorySession is a long-lived conversation with the model. The session
// itself remembers prior turns; the per-turn message carries the player
// action plus supplementary state grounding.
type StorySession interface {
	// SendTurn sends one turn message and returns the raw reply.
	SendTurn(ctx context.Context, message string) (story.Reply, error)
}
