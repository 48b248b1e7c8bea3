package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) naturedomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*naturedomain.OperationNature, error) {
	var nature naturedomain.OperationNature
	err := r.db.WithContext(ctx).First(&nature, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, naturedomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &nature, nil
}

func (r *repository) List(ctx context.Context, companyID snowflake.ID) ([]naturedomain.OperationNature, error) {
	var natures []naturedomain.OperationNature
	err := r.db.WithContext(ctx).
		Where("company_id IS NULL OR company_id = ?", companyID).
		Order("id ASC").
		Find(&natures).Error
	if err != nil {
		return nil, err
	}
	return natures, nil
}

func (r *repository) Create(ctx context.Context, nature *naturedomain.OperationNature) error {
	return r.db.WithContext(ctx).Create(nature).Error
}

func (r *repository) Update(ctx context.Context, nature *naturedomain.OperationNature) error {
	return r.db.WithContext(ctx).Save(nature).Error
}
