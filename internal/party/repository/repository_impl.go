package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	"gorm.io/gorm"
)

type companyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) partydomain.CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) FindByID(ctx context.Context, id snowflake.ID) (*partydomain.Company, error) {
	var company partydomain.Company
	err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, partydomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) List(ctx context.Context) ([]partydomain.Company, error) {
	var companies []partydomain.Company
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *companyRepository) Create(ctx context.Context, company *partydomain.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepository) Update(ctx context.Context, company *partydomain.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

type counterpartyRepository struct {
	db *gorm.DB
}

func NewCounterpartyRepository(db *gorm.DB) partydomain.CounterpartyRepository {
	return &counterpartyRepository{db: db}
}

func (r *counterpartyRepository) FindByID(ctx context.Context, id snowflake.ID) (*partydomain.Counterparty, error) {
	var counterparty partydomain.Counterparty
	err := r.db.WithContext(ctx).First(&counterparty, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, partydomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &counterparty, nil
}

func (r *counterpartyRepository) Create(ctx context.Context, counterparty *partydomain.Counterparty) error {
	return r.db.WithContext(ctx).Create(counterparty).Error
}

func (r *counterpartyRepository) Update(ctx context.Context, counterparty *partydomain.Counterparty) error {
	return r.db.WithContext(ctx).Save(counterparty).Error
}
