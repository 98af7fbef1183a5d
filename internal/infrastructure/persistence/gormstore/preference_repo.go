package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jalrakshak-ai-api/internal/domain/entity"
)

type PreferenceRepository struct {
	client *Client
}

func NewPreferenceRepository(client *Client) *PreferenceRepository {
	return &PreferenceRepository{client: client}
}

func (r *PreferenceRepository) Get(ctx context.Context, clientID string) (*entity.Preference, error) {
	ctx, span := tracer.Start(ctx, "gormstore.PreferenceRepository.Get")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var pref entity.Preference
	if err := db.First(&pref, "client_id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return &pref, nil
}

func (r *PreferenceRepository) Upsert(ctx context.Context, pref *entity.Preference) error {
	ctx, span := tracer.Start(ctx, "gormstore.PreferenceRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"dark_mode", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}
