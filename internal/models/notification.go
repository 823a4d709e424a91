package models

import "time"

// Notification types the bell and the delivery agent recognize. The set is
// open-ended; anything unrecognized falls back to TypeGeneral.
const (
	TypeCall    = "call"
	TypeMessage = "message"
	TypeGeneral = "general"
)

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeType maps an empty type tag to the default label.
func NormalizeType(typ string) string {
	if typ == "" {
		return TypeGeneral
	}
	return typ
}

// DefaultContent returns the body text used when a producer supplies none.
func DefaultContent(typ string) string {
	switch typ {
	case TypeCall:
		return "Incoming call"
	case TypeMessage:
		return "You have a new message"
	default:
		return "You have a new notification"
	}
}
