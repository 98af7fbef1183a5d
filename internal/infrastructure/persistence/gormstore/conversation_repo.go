package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"jalrakshak-ai-api/internal/domain/entity"
	"jalrakshak-ai-api/internal/domain/repository"
)

type ConversationRepository struct {
	client *Client
}

func NewConversationRepository(client *Client) *ConversationRepository {
	return &ConversationRepository{client: client}
}

func (r *ConversationRepository) Create(ctx context.Context, conv *entity.Conversation) error {
	ctx, span := tracer.Start(ctx, "gormstore.ConversationRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(conv).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	ctx, span := tracer.Start(ctx, "gormstore.ConversationRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var conv entity.Conversation
	if err := db.First(&conv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

type ChatTurnRepository struct {
	client *Client
	tx     repository.Transactor
}

func NewChatTurnRepository(client *Client, tx repository.Transactor) *ChatTurnRepository {
	return &ChatTurnRepository{client: client, tx: tx}
}

// Append 在事务内递增会话的回合计数并写入回合
func (r *ChatTurnRepository) Append(ctx context.Context, turn *entity.ChatTurn) error {
	ctx, span := tracer.Start(ctx, "gormstore.ChatTurnRepository.Append")
	defer span.End()

	err := r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		db := getDB(ctx, r.client.db)

		res := db.Model(&entity.Conversation{}).
			Where("id = ?", turn.ConversationID).
			UpdateColumn("turn_count", gorm.Expr("turn_count + 1"))
		if res.Error != nil {
			return fmt.Errorf("failed to bump turn count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("conversation %s: %w", turn.ConversationID, gorm.ErrRecordNotFound)
		}

		var conv entity.Conversation
		if err := db.Select("turn_count").First(&conv, "id = ?", turn.ConversationID).Error; err != nil {
			return fmt.Errorf("failed to read turn count: %w", err)
		}
		turn.Seq = conv.TurnCount

		if err := db.Create(turn).Error; err != nil {
			return fmt.Errorf("failed to create chat turn: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *ChatTurnRepository) ListByConversation(ctx context.Context, conversationID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ChatTurn], error) {
	ctx, span := tracer.Start(ctx, "gormstore.ChatTurnRepository.ListByConversation")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.ChatTurn{}).Where("conversation_id = ?", conversationID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count chat turns: %w", err)
	}

	var turns []*entity.ChatTurn
	if err := query.Order("seq ASC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&turns).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list chat turns: %w", err)
	}

	return repository.NewPagedResult(turns, total, pagination), nil
}
