package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier representa um fornecedor referenciado pelos produtos.
type Supplier struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SupplierStats resume o inventário de um fornecedor.
type SupplierStats struct {
	Supplier            string          `json:"supplier"`
	TotalProducts       int             `json:"total_products"`
	InStockProducts     int             `json:"in_stock_products"`
	OutOfStockProducts  int             `json:"out_of_stock_products"`
	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
}
