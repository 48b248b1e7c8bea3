package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CompanyRepository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Company, error)
	List(ctx context.Context) ([]Company, error)
	Create(ctx context.Context, company *Company) error
	Update(ctx context.Context, company *Company) error
}

type CounterpartyRepository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Counterparty, error)
	Create(ctx context.Context, counterparty *Counterparty) error
	Update(ctx context.Context, counterparty *Counterparty) error
}
