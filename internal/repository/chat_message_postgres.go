package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/physai/textbook-backend/internal/entity"
)

// ChatMessageRepository defines the interface for chat message persistence
type ChatMessageRepository interface {
	CreateMessage(ctx context.Context, msg *entity.ChatMessage) (*entity.ChatMessage, error)
	GetMessage(ctx context.Context, id string) (*entity.ChatMessage, error)
	UpdateFeedback(ctx context.Context, id string, feedback entity.FeedbackKind) (*entity.ChatMessage, error)
}

var _ ChatMessageRepository = &ChatMessagePostgres{}

// ChatMessagePostgres implements ChatMessageRepository using PostgreSQL
type ChatMessagePostgres struct {
	db *pgxpool.Pool
}

func NewChatMessagePostgres(db *pgxpool.Pool) *ChatMessagePostgres {
	return &ChatMessagePostgres{db: db}
}

func (r *ChatMessagePostgres) CreateMessage(ctx context.Context, msg *entity.ChatMessage) (*entity.ChatMessage, error) {
	id, err := uuid.Parse(msg.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid message ID: %w", err)
	}

	sources, err := json.Marshal(msg.Sources)
	if err != nil {
		return nil, fmt.Errorf("marshal sources: %w", err)
	}

	var createdAt time.Time
	err = r.db.QueryRow(ctx,
		`INSERT INTO chat_messages
		    (id, user_id, query, selected_text, chapter, response, sources,
		     confidence, response_time_ms, tokens_used, feedback)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL)
		 RETURNING created_at`,
		id, msg.UserID, msg.Query, msg.SelectedText, msg.Chapter, msg.Response,
		sources, msg.Confidence, msg.ResponseTimeMs, msg.TokensUsed,
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("create chat message: %w", err)
	}

	created := *msg
	created.CreatedAt = createdAt
	return &created, nil
}

func (r *ChatMessagePostgres) GetMessage(ctx context.Context, id string) (*entity.ChatMessage, error) {
	msgID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid message ID", entity.ErrMessageNotFound)
	}

	row := r.db.QueryRow(ctx,
		`SELECT id, user_id, query, selected_text, chapter, response, sources,
		        confidence, response_time_ms, tokens_used, feedback, created_at
		 FROM chat_messages WHERE id = $1`,
		msgID,
	)

	return scanChatMessage(row)
}

func (r *ChatMessagePostgres) UpdateFeedback(ctx context.Context, id string, feedback entity.FeedbackKind) (*entity.ChatMessage, error) {
	msgID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid message ID", entity.ErrMessageNotFound)
	}

	row := r.db.QueryRow(ctx,
		`UPDATE chat_messages SET feedback = $2 WHERE id = $1
		 RETURNING id, user_id, query, selected_text, chapter, response, sources,
		           confidence, response_time_ms, tokens_used, feedback, created_at`,
		msgID, string(feedback),
	)

	return scanChatMessage(row)
}

func scanChatMessage(row pgx.Row) (*entity.ChatMessage, error) {
	var (
		msg      entity.ChatMessage
		msgID    uuid.UUID
		userID   *uuid.UUID
		sources  []byte
		feedback *string
	)

	err := row.Scan(
		&msgID, &userID, &msg.Query, &msg.SelectedText, &msg.Chapter,
		&msg.Response, &sources, &msg.Confidence, &msg.ResponseTimeMs,
		&msg.TokensUsed, &feedback, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chat message: %w", err)
	}

	msg.ID = msgID.String()
	if userID != nil {
		s := userID.String()
		msg.UserID = &s
	}
	if feedback != nil {
		kind := entity.FeedbackKind(*feedback)
		msg.Feedback = &kind
	}

	msg.Sources = []entity.Source{}
	if len(sources) > 0 {
		if err := json.Unmarshal(sources, &msg.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
	}

	return &msg, nil
}
