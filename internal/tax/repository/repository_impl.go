package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) ListByNature(ctx context.Context, natureID snowflake.ID) ([]taxdomain.TaxRule, error) {
	var rules []taxdomain.TaxRule
	err := r.db.WithContext(ctx).
		Where("operation_nature_id = ?", natureID).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) ListByNatureAndKind(ctx context.Context, natureID snowflake.ID, kind taxdomain.RuleKind) ([]taxdomain.TaxRule, error) {
	var rules []taxdomain.TaxRule
	err := r.db.WithContext(ctx).
		Where("operation_nature_id = ? AND kind = ?", natureID, kind).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) Create(ctx context.Context, rule *taxdomain.TaxRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) Update(ctx context.Context, rule *taxdomain.TaxRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Delete(&taxdomain.TaxRule{}, "id = ?", id).Error
}
