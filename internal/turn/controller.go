// Package turn orchestrates one player turn at a time: it builds the
// request context, calls the story service, normalizes the reply, and
// merges the result into the game state through the pure reducer. It is
// the only writer of game state.
package turn

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/casefile-games/casefile/internal/services"
	"github.com/casefile-games/casefile/pkg/prompts"
	"github.com/casefile-games/casefile/pkg/state"
	"github.com/casefile-games/casefile/pkg/story"
)

const (
	// DefaultTurnTimeout bounds a single story service call. A hung
	// call returns the controller to idle with a failure update.
	DefaultTurnTimeout = 30 * time.Second

	// MemoryFlashDuration is how long the transient memory flag stays
	// set after a flashback turn.
	MemoryFlashDuration = 5 * time.Second

	// mirrorTTL bounds the lifetime of the optional session snapshot
	// in the cache. The snapshot is write-only diagnostics; it is
	// never read back, so nothing survives into a new session.
	mirrorTTL = time.Hour

	mirrorKeyPrefix = "session:"
)

// Failure narratives. The init message is the one place the controller is
// allowed to be specific about the technical cause.
const (
	initFailureNarrative = "The line is dead. The story service could not be reached. " +
		"Check the service configuration (is the API key set?) and restart."
	turnFailureNarrative = "The fog swallows your words, and for a moment the station " +
		"gives nothing back. Try again."
)

// ErrTurnInFlight is returned when an action is submitted while a turn
// is still awaiting its reply.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// QuickActions are the canned player actions offered by the UI. Each is
// just a preset SubmitAction text.
var QuickActions = []string{
	"Look around carefully",
	"Who is here?",
	"Where can I go from here?",
}

// Controller drives the turn loop. It has two states, idle and awaiting
// reply, gated by a busy flag: at most one turn is in flight, and a
// submission while busy is rejected.
type Controller struct {
	svc    services.StoryService
	logger *slog.Logger
	cache  services.Cache
	now    func() time.Time

	timeout time.Duration

	mu          sync.Mutex
	session     services.StorySession
	gs          state.GameState
	busy        bool
	memoryUntil time.Time
}

// NewController creates a controller over a fresh game state.
func NewController(svc services.StoryService, logger *slog.Logger) *Controller {
	return &Controller{
		svc:     svc,
		logger:  logger,
		now:     time.Now,
		timeout: DefaultTurnTimeout,
		gs:      state.NewGameState(),
	}
}

// WithCache sets an optional cache; the controller mirrors a snapshot of
// the live session into it after every turn, for out-of-band inspection.
// Returns the Controller for method chaining.
func (c *Controller) WithCache(cache services.Cache) *Controller {
	c.cache = cache
	return c
}

// WithTimeout overrides the per-turn service timeout.
// Returns the Controller for method chaining.
func (c *Controller) WithTimeout(d time.Duration) *Controller {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// WithClock overrides the time source. Used by tests.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	if now != nil {
		c.now = now
	}
	return c
}

// Start runs the initialization turn: it opens the story session and
// sends the fixed opening prompt, applying the result like any other
// turn. It never fails the caller; a misconfigured or unreachable
// service becomes a configuration-specific failure narrative, and every
// later turn fails the same way until the session is restored.
func (c *Controller) Start(ctx context.Context) state.GameState {
	c.mu.Lock()
	if c.busy || c.session != nil {
		gs := c.gs.Clone()
		c.mu.Unlock()
		return gs
	}
	c.busy = true
	c.mu.Unlock()

	var update state.TurnUpdate

	session, err := c.svc.OpenSession(ctx, prompts.SystemInstruction)
	if err != nil {
		c.logger.Error("Failed to open story session", "error", err)
		update = story.FailureUpdate(initFailureNarrative)
		return c.finishTurn(ctx, nil, update)
	}

	reply, err := c.sendTurn(ctx, session, prompts.OpeningPrompt)
	if err != nil {
		c.logger.Error("Initialization turn failed", "error", err)
		update = story.FailureUpdate(initFailureNarrative)
		// The session opened but the opening turn failed; keep the
		// session so the player can retry normally.
		return c.finishTurn(ctx, session, update)
	}

	update = story.Normalize(reply)
	return c.finishTurn(ctx, session, update)
}

// SubmitAction runs one player turn. It returns ErrTurnInFlight while a
// previous turn is still awaiting its reply; the rejected call leaves the
// game state untouched. The player's entry is appended before the service
// is called, so it is visible immediately.
func (c *Controller) SubmitAction(ctx context.Context, action string) (state.GameState, error) {
	action = strings.TrimSpace(action)

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return state.GameState{}, ErrTurnInFlight
	}
	if action == "" {
		gs := c.gs.Clone()
		c.mu.Unlock()
		return gs, nil
	}
	c.busy = true
	c.gs = state.AppendPlayerEntry(c.gs, action, c.now())
	snapshot := c.gs.Clone()
	session := c.session
	c.mu.Unlock()

	var update state.TurnUpdate
	switch {
	case session == nil:
		// Initialization failed earlier; every turn repeats the
		// configuration message until the session is restored.
		update = story.FailureUpdate(initFailureNarrative)

	default:
		msg, err := prompts.New().WithState(snapshot).WithAction(action).Build()
		if err != nil {
			c.logger.Error("Failed to build turn message", "error", err)
			update = story.FailureUpdate(turnFailureNarrative)
			break
		}

		reply, err := c.sendTurn(ctx, session, msg)
		if err != nil {
			c.logger.Warn("Turn failed", "error", err)
			update = story.FailureUpdate(turnFailureNarrative)
			break
		}
		update = story.Normalize(reply)
	}

	return c.finishTurn(ctx, session, update), nil
}

// sendTurn calls the service under the per-turn timeout.
func (c *Controller) sendTurn(ctx context.Context, session services.StorySession, msg string) (story.Reply, error) {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return session.SendTurn(tctx, msg)
}

// finishTurn applies the update, records the memory flash deadline, and
// returns the controller to idle.
func (c *Controller) finishTurn(ctx context.Context, session services.StorySession, update state.TurnUpdate) state.GameState {
	c.mu.Lock()
	if session != nil {
		c.session = session
	}
	c.gs = state.Apply(c.gs, update, c.now())
	if update.MemoryFlash() {
		c.memoryUntil = c.now().Add(MemoryFlashDuration)
	}
	c.busy = false
	gs := c.gs.Clone()
	c.mu.Unlock()

	c.mirror(ctx, gs)
	return gs
}

// mirror writes a snapshot of the session into the cache. Mirror errors
// are logged and otherwise ignored; the turn has already completed.
func (c *Controller) mirror(ctx context.Context, gs state.GameState) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(gs)
	if err != nil {
		c.logger.Error("Failed to marshal session snapshot", "error", err)
		return
	}
	key := mirrorKeyPrefix + gs.ID.String()
	if err := c.cache.Set(ctx, key, string(data), mirrorTTL); err != nil {
		c.logger.Warn("Failed to mirror session snapshot", "key", key, "error", err)
	}
}

// State returns a snapshot of the current game state.
func (c *Controller) State() state.GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gs.Clone()
}

// Busy reports whether a turn is awaiting its reply.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// MemoryFlashActive reports the transient memory flag. It self-clears
// once MemoryFlashDuration has passed since the triggering turn.
func (c *Controller) MemoryFlashActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().Before(c.memoryUntil)
}
