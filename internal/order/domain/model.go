package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Order is a sales order ready for fiscal emission. The emission pipeline
// reads orders, it never writes them.
type Order struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	CompanyID      snowflake.ID `gorm:"column:company_id;not null;index"`
	CounterpartyID snowflake.ID `gorm:"column:counterparty_id;not null;index"`

	FreightTotal  decimal.Decimal `gorm:"column:freight_total;type:numeric(14,2);not null;default:0"`
	DiscountTotal decimal.Decimal `gorm:"column:discount_total;type:numeric(14,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string { return "orders" }

// OrderItem carries the sold quantity plus the product's tax defaults, which
// the payload builder uses when no rule overrides them.
type OrderItem struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	OrderID snowflake.ID `gorm:"column:order_id;not null;index"`

	ProductCode string          `gorm:"column:product_code;type:text"`
	Description string          `gorm:"type:text;not null"`
	Unit        string          `gorm:"type:text;not null;default:'UN'"`
	Quantity    decimal.Decimal `gorm:"type:numeric(14,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(14,2);not null"`

	NCM  string `gorm:"column:ncm;type:text"`
	CFOP string `gorm:"column:cfop;type:text"`
	EAN  string `gorm:"column:ean;type:text"`
	// OriginCode is the merchandise origin: 0 national, 1/2/3/8 imported.
	OriginCode string `gorm:"column:origin_code;type:text;not null;default:'0'"`

	ICMSSituationCode   string              `gorm:"column:icms_situation_code;type:text"`
	PISSituationCode    string              `gorm:"column:pis_situation_code;type:text"`
	COFINSSituationCode string              `gorm:"column:cofins_situation_code;type:text"`
	PISRate             decimal.NullDecimal `gorm:"column:pis_rate;type:numeric(7,4)"`
	COFINSRate          decimal.NullDecimal `gorm:"column:cofins_rate;type:numeric(7,4)"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OrderItem) TableName() string { return "order_items" }

// GrossValue is quantity times unit price rounded to cents.
func (i *OrderItem) GrossValue() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Round(2)
}
