package conversation

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Message roles. The storage layer enforces the same set with a CHECK
// constraint.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChunkRef identifies a stored chunk an assistant turn cited as evidence.
type ChunkRef struct {
	ID      string `json:"id"`
	Section string `json:"section,omitempty"`
}

// Turn is one message in a conversation.
type Turn struct {
	Role      string
	Content   string
	Sources   []ChunkRef
	Timestamp time.Time
}

// Conversation is the single dialogue thread for a (report, requester) pair.
type Conversation struct {
	ID            uuid.UUID
	ReportID      string
	RequesterID   string
	Tier          string
	LastMessageAt time.Time
	CreatedAt     time.Time
}

func uuidToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDToUUID(id pgtype.UUID) uuid.UUID {
	return uuid.UUID(id.Bytes)
}
