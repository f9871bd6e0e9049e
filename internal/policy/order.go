package policy

import "bookstock/internal/domain"

const (
	// LargeOrderQuantity é o limite acima do qual o pedido recebe aviso.
	LargeOrderQuantity = 100
	// LowStockAfterOrder é o limite do estoque remanescente que gera aviso.
	LowStockAfterOrder = 20
)

// ValidateOrderRequest aplica apenas a regra 1 (parâmetros presentes e quantidade positiva).
// O processador a usa na fronteira, antes de qualquer I/O.
func ValidateOrderRequest(req domain.OrderRequest) Decision {
	if req.ProductID == "" || req.Quantity <= 0 {
		return reject(ReasonMissingParameters, "")
	}
	return Decision{Outcome: Accept}
}

// EvaluateOrder decide se o pedido pode ser atendido a partir de um snapshot do produto.
// product nil significa que a referência não foi resolvida.
// As regras são avaliadas em ordem; a primeira rejeição encerra a avaliação.
func EvaluateOrder(req domain.OrderRequest, product *domain.Product) Decision {
	if d := ValidateOrderRequest(req); d.Rejected() {
		return d
	}

	if product == nil {
		return reject(ReasonProductNotFound, req.ProductID)
	}

	// Produto arquivado saiu do catálogo: não aceita pedidos, mesmo com estoque.
	if product.IsArchived() {
		return reject(ReasonProductArchived, product.Name)
	}

	if !product.InStock {
		return reject(ReasonOutOfStock, product.Name)
	}

	if product.StockQuantity < req.Quantity {
		d := reject(ReasonInsufficientStock, product.Name)
		d.Available = product.StockQuantity
		d.Requested = req.Quantity
		return d
	}

	var warnings []domain.Warning
	if req.Quantity > LargeOrderQuantity {
		warnings = append(warnings, domain.NewWarning(domain.WarnLargeOrderQuantity))
	}

	remaining := product.StockQuantity - req.Quantity
	if remaining > 0 && remaining < LowStockAfterOrder {
		warnings = append(warnings, domain.NewCountWarning(domain.WarnLowStockAfterOrder, "remaining", remaining))
	}

	return accept(warnings)
}
