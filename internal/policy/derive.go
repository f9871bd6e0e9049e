package policy

import (
	"github.com/shopspring/decimal"

	"bookstock/internal/domain"
)

const (
	// PromotionStockLevel é o estoque acima do qual o produto entra em promoção.
	PromotionStockLevel = 111
	// PromotionLabel é o texto exibido para produtos em promoção.
	PromotionLabel = "11% discount"
	// CriticalStockLevel marca itens críticos na consulta de estoque baixo.
	CriticalStockLevel = 10
	// LowThresholdHint é o limite abaixo do qual uma consulta vazia gera aviso.
	LowThresholdHint = 20
)

// Derive calcula os campos de leitura de um produto.
// inventoryValue só é preenchido quando preço e estoque são ambos diferentes de zero.
func Derive(p domain.Product, lowStockTarget int) domain.ProductView {
	v := domain.ProductView{
		Product:        p,
		EffectivePrice: EffectivePrice(p.Category, p.Price),
		LowStock:       p.StockQuantity < lowStockTarget,
	}

	if !p.Price.IsZero() && p.StockQuantity != 0 {
		value := p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
		v.InventoryValue = &value
	}

	if p.StockQuantity > PromotionStockLevel {
		v.Promotion = PromotionLabel
	}

	return v
}

// DeriveAll aplica Derive a uma lista.
func DeriveAll(products []domain.Product, lowStockTarget int) []domain.ProductView {
	views := make([]domain.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, Derive(p, lowStockTarget))
	}
	return views
}

// LowStockWarnings produz os avisos da consulta de estoque baixo.
func LowStockWarnings(products []domain.Product, threshold int) []domain.Warning {
	var warnings []domain.Warning

	critical := 0
	for _, p := range products {
		if p.StockQuantity < CriticalStockLevel {
			critical++
		}
	}
	if critical > 0 {
		warnings = append(warnings, domain.NewCountWarning(domain.WarnCriticalLowStock, "count", critical))
	}

	if len(products) == 0 && threshold < LowThresholdHint {
		warnings = append(warnings, domain.NewWarning(domain.WarnLowThresholdNoResult))
	}

	return warnings
}

// InventoryValue soma preço × estoque de uma lista de produtos.
func InventoryValue(products []domain.Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity))))
	}
	return total
}
