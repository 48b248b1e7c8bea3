package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/fiscal/internal/order/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) orderdomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orderdomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Create(ctx context.Context, order *orderdomain.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}
