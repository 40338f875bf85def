package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Conversation is the ordered chat history of one session. It is append-only:
// turns are never removed except by Reset.
//
// Contract:
//   - The first turn is a user turn and roles strictly alternate
//   - Every turn carries at least one part
//   - Function calls appear only in assistant turns, responses only in user turns
//   - Turns returns a defensive copy to avoid external mutation
type Conversation struct {
	id    string
	turns []Content
	mu    sync.RWMutex
}

// NewConversation creates an empty conversation with a random identifier.
func NewConversation() *Conversation {
	return &Conversation{id: uuid.NewString()}
}

// ID returns the conversation identifier (used as session id in logs).
func (c *Conversation) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.id
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.turns)
}

// Turns returns a copy of the turn slice.
func (c *Conversation) Turns() []Content {
	c.mu.RLock()
	defer c.mu.RUnlock()

	turns := make([]Content, len(c.turns))
	copy(turns, c.turns)

	return turns
}

// Last returns the most recent turn.
func (c *Conversation) Last() (Content, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.turns) == 0 {
		return Content{}, false
	}

	return c.turns[len(c.turns)-1], true
}

// Append validates and appends a turn.
func (c *Conversation) Append(turn Content) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ValidateTurn(turn, c.last()); err != nil {
		return err
	}

	c.turns = append(c.turns, turn)

	return nil
}

// AppendUserText adds user input. When the conversation already ends with a
// user turn (an aborted request or the results of its last tool round) the text
// joins that turn, so roles keep alternating and nothing is discarded.
func (c *Conversation) AppendUserText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.turns)
	if n == 0 || c.turns[n-1].Role != RoleUser {
		turn := NewUserText(text)
		if err := ValidateTurn(turn, c.last()); err != nil {
			return err
		}

		c.turns = append(c.turns, turn)

		return nil
	}

	last := c.turns[n-1]
	parts := make([]Part, 0, len(last.Parts)+1)
	parts = append(parts, last.Parts...)
	parts = append(parts, TextPart{Text: text})
	c.turns[n-1] = Content{Role: RoleUser, Parts: parts}

	return nil
}

func (c *Conversation) last() *Content {
	if n := len(c.turns); n > 0 {
		return &c.turns[n-1]
	}

	return nil
}

// Reset removes all turns and assigns a fresh identifier.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = nil
	c.id = uuid.NewString()
}

// ValidateTurn checks a turn against the conversation invariants given the
// previous turn (nil for the first one).
func ValidateTurn(turn Content, prev *Content) error {
	if turn.Role != RoleUser && turn.Role != RoleAssistant {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidTurn, turn.Role)
	}

	if len(turn.Parts) == 0 {
		return fmt.Errorf("%w: %s turn has no parts", ErrInvalidTurn, turn.Role)
	}

	if prev == nil && turn.Role != RoleUser {
		return fmt.Errorf("%w: conversation must start with a user turn", ErrInvalidTurn)
	}

	if prev != nil && prev.Role == turn.Role {
		return fmt.Errorf("%w: consecutive %s turns", ErrInvalidTurn, turn.Role)
	}

	ids := make(map[string]struct{})

	for i, p := range turn.Parts {
		switch part := p.(type) {
		case TextPart:
		case FunctionCallPart:
			if turn.Role != RoleAssistant {
				return fmt.Errorf("%w: function call in %s turn", ErrInvalidTurn, turn.Role)
			}

			if _, dup := ids[part.FunctionCall.ID]; dup {
				return fmt.Errorf("%w: duplicate call id %q", ErrInvalidTurn, part.FunctionCall.ID)
			}

			ids[part.FunctionCall.ID] = struct{}{}
		case FunctionResponsePart:
			if turn.Role != RoleUser {
				return fmt.Errorf("%w: function response in %s turn", ErrInvalidTurn, turn.Role)
			}
		default:
			return fmt.Errorf("%w: part %d has unknown type %T", ErrInvalidTurn, i, p)
		}
	}

	return nil
}
