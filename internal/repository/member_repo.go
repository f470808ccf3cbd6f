package repository

import (
	"context"

	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
	"gorm.io/gorm"
)

type MemberRepository interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
