package policy

import "github.com/shopspring/decimal"

// Categorias com regra de preço própria.
const (
	CategoryEducation = "EDU"
	CategoryPremium   = "PREMIUM"
)

var (
	educationFactor = decimal.NewFromFloat(0.8)
	premiumFactor   = decimal.NewFromFloat(1.2)
)

// EffectivePrice determina o preço de venda a partir da categoria.
func EffectivePrice(category string, base decimal.Decimal) decimal.Decimal {
	switch category {
	case CategoryEducation:
		return base.Mul(educationFactor).Round(2)
	case CategoryPremium:
		return base.Mul(premiumFactor).Round(2)
	default:
		return base
	}
}
