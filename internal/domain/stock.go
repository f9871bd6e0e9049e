package domain

import "math"

// MaxStockQuantity é o maior contador aceito (limite da coluna INTEGER).
const MaxStockQuantity = math.MaxInt32

// StockAdjustment é o payload das ações administrativas de estoque.
// Quantity é sempre positiva; o sentido vem da operação (reduce ou boost).
type StockAdjustment struct {
	ProductID string `json:"-"`
	Quantity  int    `json:"quantity"`
	Actor     string `json:"-"`
}

// StockLevel é a resposta de um ajuste: o estado do contador após a mudança.
type StockLevel struct {
	ProductID     string `json:"product_id"`
	StockQuantity int    `json:"stock_quantity"`
	InStock       bool   `json:"in_stock"`
	Message       string `json:"message,omitempty"`
}
