package repository

import (
	"context"

	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/models"
	"gorm.io/gorm"
)

type ClassRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
}

type classRepository struct {
	db *gorm.DB
}

func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	var class models.ClassSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}
