package policy_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/policy"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func codes(ws []domain.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

func TestEvaluateProductCreation_CleanRequest(t *testing.T) {
	req := domain.CreateProductRequest{Name: "Dune", Price: price("12.50"), StockQuantity: 40, SupplierID: "s-1"}

	d := policy.EvaluateProductCreation(req, &domain.Supplier{ID: "s-1"})

	assert.Equal(t, policy.Accept, d.Outcome)
	assert.Empty(t, d.Warnings)
}

func TestEvaluateProductCreation_UnknownSupplierRejects(t *testing.T) {
	req := domain.CreateProductRequest{Name: "Dune", Price: price("12.50"), StockQuantity: 40, SupplierID: "s-404"}

	d := policy.EvaluateProductCreation(req, nil)

	assert.True(t, d.Rejected())
	assert.IsType(t, &apperror.IntegrityError{}, d.Err())
}

func TestEvaluateProductCreation_WarnsButNeverRejects(t *testing.T) {
	req := domain.CreateProductRequest{Name: "Dune", StockQuantity: 3}

	d := policy.EvaluateProductCreation(req, nil)

	assert.Equal(t, policy.AcceptWithWarnings, d.Outcome)
	assert.Equal(t, []string{domain.WarnNoSupplier, domain.WarnLowInitialStock, domain.WarnMissingPrice}, codes(d.Warnings))
}

func TestEvaluateProductCreation_ZeroPriceWarns(t *testing.T) {
	req := domain.CreateProductRequest{Name: "Dune", Price: price("0"), StockQuantity: 10, SupplierID: "s-1"}

	d := policy.EvaluateProductCreation(req, &domain.Supplier{ID: "s-1"})

	assert.Equal(t, []string{domain.WarnMissingPrice}, codes(d.Warnings))
}

func TestEffectivePrice(t *testing.T) {
	base := decimal.RequireFromString("10.00")

	assert.True(t, policy.EffectivePrice(policy.CategoryEducation, base).Equal(decimal.RequireFromString("8")))
	assert.True(t, policy.EffectivePrice(policy.CategoryPremium, base).Equal(decimal.RequireFromString("12")))
	assert.True(t, policy.EffectivePrice("FICTION", base).Equal(base))
}
