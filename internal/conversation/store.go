// Package conversation manages the single dialogue thread kept per
// (report, requester) pair.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luminastro/lumina/internal/sqlc"
)

// DefaultHistoryLimit bounds how many turns a single load pulls back.
const DefaultHistoryLimit = 100

// Querier defines the database operations Store needs. The interface is
// defined by the consumer so tests can substitute an in-memory fake.
type Querier interface {
	CreateConversation(ctx context.Context, arg sqlc.CreateConversationParams) (sqlc.Conversation, error)
	GetConversation(ctx context.Context, arg sqlc.GetConversationParams) (sqlc.Conversation, error)
	GetConversationMessages(ctx context.Context, arg sqlc.GetConversationMessagesParams) ([]sqlc.ConversationMessage, error)
	GetMaxSequenceNumber(ctx context.Context, conversationID pgtype.UUID) (int32, error)
	AddConversationMessage(ctx context.Context, arg sqlc.AddConversationMessageParams) error
	LockConversation(ctx context.Context, id pgtype.UUID) (pgtype.UUID, error)
	TouchConversation(ctx context.Context, arg sqlc.TouchConversationParams) error
}

// Store persists conversations and their append-only message logs.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	querier Querier
	pool    *pgxpool.Pool // transaction support; nil in unit tests
	logger  *slog.Logger
}

// New creates a Store. pool may be nil in tests, in which case Append runs
// without a transaction.
func New(querier Querier, pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		querier: querier,
		pool:    pool,
		logger:  logger,
	}
}

// GetOrCreate loads the conversation for a (report, requester) pair, creating
// an empty one on first contact. Creation is an upsert on the unique
// (report_id, requester_id) pair, so concurrent first questions converge on
// one row.
func (s *Store) GetOrCreate(ctx context.Context, reportID, requesterID, tier string) (*Conversation, error) {
	row, err := s.querier.CreateConversation(ctx, sqlc.CreateConversationParams{
		ReportID:    reportID,
		RequesterID: requesterID,
		Tier:        tier,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get or create conversation for report %q: %w", reportID, err)
	}

	conv := rowToConversation(row)
	s.logger.Debug("loaded conversation",
		"conversation_id", conv.ID,
		"report_id", reportID)
	return conv, nil
}

// Messages returns the persisted log for a conversation in sequence order,
// capped at DefaultHistoryLimit turns.
func (s *Store) Messages(ctx context.Context, conversationID uuid.UUID) ([]Turn, error) {
	rows, err := s.querier.GetConversationMessages(ctx, sqlc.GetConversationMessagesParams{
		ConversationID: uuidToPgUUID(conversationID),
		ResultLimit:    DefaultHistoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load messages for conversation %s: %w", conversationID, err)
	}

	turns := make([]Turn, 0, len(rows))
	for _, row := range rows {
		turn := Turn{
			Role:    row.Role,
			Content: row.Content,
		}
		if row.CreatedAt.Valid {
			turn.Timestamp = row.CreatedAt.Time
		}
		if len(row.Sources) > 0 {
			if err := json.Unmarshal(row.Sources, &turn.Sources); err != nil {
				// A malformed sources column should not make history unreadable.
				s.logger.Warn("skipping unreadable message sources",
					"conversation_id", conversationID,
					"sequence_number", row.SequenceNumber,
					"error", err)
			}
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Append persists new turns at the end of the conversation log and returns
// the full updated history. The conversation row is locked for the duration
// so concurrent appends cannot collide on sequence numbers.
func (s *Store) Append(ctx context.Context, conversationID uuid.UUID, turns ...Turn) ([]Turn, error) {
	if len(turns) == 0 {
		return s.Messages(ctx, conversationID)
	}

	if s.pool == nil {
		if err := s.appendWith(ctx, s.querier, conversationID, turns); err != nil {
			return nil, err
		}
		return s.Messages(ctx, conversationID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Debug("transaction rollback (may be already committed)", "error", rbErr)
		}
	}()

	txQuerier := sqlc.New(tx)
	if _, err := txQuerier.LockConversation(ctx, uuidToPgUUID(conversationID)); err != nil {
		return nil, fmt.Errorf("failed to lock conversation %s: %w", conversationID, err)
	}
	if err := s.appendWith(ctx, txQuerier, conversationID, turns); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("appended turns",
		"conversation_id", conversationID,
		"count", len(turns))
	return s.Messages(ctx, conversationID)
}

func (s *Store) appendWith(ctx context.Context, q Querier, conversationID uuid.UUID, turns []Turn) error {
	// The query COALESCEs to 0 for an empty conversation, so any error here
	// is a real database failure, not "no rows".
	maxSeq, err := q.GetMaxSequenceNumber(ctx, uuidToPgUUID(conversationID))
	if err != nil {
		return fmt.Errorf("failed to read max sequence number for %s: %w", conversationID, err)
	}

	for i, turn := range turns {
		if turn.Role != RoleUser && turn.Role != RoleAssistant {
			return fmt.Errorf("turn %d has invalid role %q", i, turn.Role)
		}

		var sources []byte
		if len(turn.Sources) > 0 {
			sources, err = json.Marshal(turn.Sources)
			if err != nil {
				return fmt.Errorf("failed to marshal sources for turn %d: %w", i, err)
			}
		}

		if err := q.AddConversationMessage(ctx, sqlc.AddConversationMessageParams{
			ConversationID: uuidToPgUUID(conversationID),
			Role:           turn.Role,
			Content:        turn.Content,
			Sources:        sources,
			SequenceNumber: maxSeq + int32(i) + 1,
		}); err != nil {
			return fmt.Errorf("failed to insert turn %d: %w", i, err)
		}
	}

	if err := q.TouchConversation(ctx, sqlc.TouchConversationParams{
		ID: uuidToPgUUID(conversationID),
	}); err != nil {
		return fmt.Errorf("failed to touch conversation %s: %w", conversationID, err)
	}
	return nil
}

func rowToConversation(row sqlc.Conversation) *Conversation {
	conv := &Conversation{
		ID:          pgUUIDToUUID(row.ID),
		ReportID:    row.ReportID,
		RequesterID: row.RequesterID,
		Tier:        row.Tier,
	}
	if row.LastMessageAt.Valid {
		conv.LastMessageAt = row.LastMessageAt.Time
	}
	if row.CreatedAt.Valid {
		conv.CreatedAt = row.CreatedAt.Time
	}
	return conv
}
