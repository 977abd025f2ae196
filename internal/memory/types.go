package memory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SRdeMora/quimera/internal/types"
)

// Role identifies the author of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Role) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	role := Role(str)
	if !role.IsValid() {
		return fmt.Errorf("invalid role: %s", str)
	}

	*r = role
	return nil
}

// Turn is a single conversational turn. Turns are immutable once written and
// owned exclusively by the session they belong to.
type Turn struct {
	ID            types.ID  `json:"id"`
	SessionID     types.ID  `json:"session_id"`
	Role          Role      `json:"role"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	SequenceIndex int64     `json:"sequence_index"`
}

// NewTurn creates a Turn with a fresh ID and the current timestamp.
// The sequence index is assigned by the recency tier on append.
func NewTurn(sessionID types.ID, role Role, text string) Turn {
	return Turn{
		ID:        types.NewID(),
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks that the Turn has all required fields.
func (t *Turn) Validate() error {
	if t.ID.IsZero() {
		return NewInvalidTurnError("turn id cannot be empty")
	}
	if t.SessionID.IsZero() {
		return NewInvalidTurnError("turn session_id cannot be empty")
	}
	if !t.Role.IsValid() {
		return NewInvalidTurnError(fmt.Sprintf("invalid turn role %q", t.Role))
	}
	if t.Text == "" {
		return NewInvalidTurnError("turn text cannot be empty")
	}
	return nil
}

// MemoryRecord is the semantic-tier projection of a persisted turn: one
// embedded vector per turn, written asynchronously after generation.
type MemoryRecord struct {
	VectorID   types.ID  `json:"vector_id"`
	SessionID  types.ID  `json:"session_id"`
	TurnID     types.ID  `json:"turn_id"`
	Text       string    `json:"text"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}
