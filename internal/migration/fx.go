package migration

import (
	"github.com/smallbiznis/fiscal/internal/config"
	invoicedomain "github.com/smallbiznis/fiscal/internal/invoice/domain"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	orderdomain "github.com/smallbiznis/fiscal/internal/order/domain"
	partydomain "github.com/smallbiznis/fiscal/internal/party/domain"
	"github.com/smallbiznis/fiscal/internal/seed"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// SQLite installs (dev, tests) skip the versioned migrations.
			if err := conn.AutoMigrate(
				&partydomain.Company{},
				&partydomain.Counterparty{},
				&orderdomain.Order{},
				&orderdomain.OrderItem{},
				&naturedomain.OperationNature{},
				&taxdomain.TaxRule{},
				&invoicedomain.Invoice{},
				&invoicedomain.Event{},
				&invoicedomain.Sequence{},
			); err != nil {
				return err
			}
		}
		return seed.EnsureDefaultNature(conn)
	}),
)
