// Package seed installs the default operation nature so a fresh install can
// emit without any setup.
package seed

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	naturedomain "github.com/smallbiznis/fiscal/internal/operationnature/domain"
	taxdomain "github.com/smallbiznis/fiscal/internal/tax/domain"
	"gorm.io/gorm"
)

const defaultNatureDescription = "Venda de mercadoria"

// EnsureDefaultNature creates a global sale nature with catch-all tax rules
// when the table is empty. Existing installs are left untouched.
func EnsureDefaultNature(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&naturedomain.OperationNature{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		nature := naturedomain.OperationNature{
			ID:                node.Generate(),
			Description:       defaultNatureDescription,
			PresenceIndicator: "2",
			FreightInBase:     true,
			Series:            "1",
		}
		if err := tx.Create(&nature).Error; err != nil {
			return err
		}

		rules := []taxdomain.TaxRule{
			{
				ID:                node.Generate(),
				OperationNatureID: nature.ID,
				Kind:              taxdomain.RuleKindICMS,
				Destinations:      taxdomain.DestinationAny,
				SituationCode:     "00",
				Rate:              decimal.NewNullDecimal(decimal.NewFromInt(18)),
				CFOP:              "5102",
			},
			{
				ID:                node.Generate(),
				OperationNatureID: nature.ID,
				Kind:              taxdomain.RuleKindPIS,
				Destinations:      taxdomain.DestinationAny,
				SituationCode:     "01",
				Rate:              decimal.NewNullDecimal(decimal.NewFromFloat(1.65)),
			},
			{
				ID:                node.Generate(),
				OperationNatureID: nature.ID,
				Kind:              taxdomain.RuleKindCOFINS,
				Destinations:      taxdomain.DestinationAny,
				SituationCode:     "01",
				Rate:              decimal.NewNullDecimal(decimal.NewFromFloat(7.6)),
			},
		}
		return tx.Create(&rules).Error
	})
}
