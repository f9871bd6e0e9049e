package domain

import "time"

// OrderState representa os estados do processador de pedidos.
// Transições válidas: Received -> Validated -> Committed e Received -> Rejected.
type OrderState string

const (
	OrderReceived  OrderState = "received"
	OrderValidated OrderState = "validated"
	OrderCommitted OrderState = "committed"
	OrderRejected  OrderState = "rejected"
)

// Order é imutável após aceito. Apenas pedidos aceitos são persistidos.
type Order struct {
	ID        string     `json:"id" db:"id"`
	ProductID string     `json:"product_id" db:"product_id"`
	Quantity  int        `json:"quantity" db:"quantity"`
	State     OrderState `json:"state" db:"state"`
	CreatedBy string     `json:"created_by,omitempty" db:"created_by"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// OrderRequest é o payload tipado de submissão de pedido.
type OrderRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Actor     string `json:"-"`
}

// OrderResult é devolvido em todo caminho de aceite, com ou sem avisos.
type OrderResult struct {
	Order    Order     `json:"data"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// CanTransition informa se a máquina de estados permite ir de s para next.
func (s OrderState) CanTransition(next OrderState) bool {
	switch s {
	case OrderReceived:
		return next == OrderValidated || next == OrderRejected
	case OrderValidated:
		return next == OrderCommitted
	default:
		return false
	}
}

// IsTerminal informa se o estado encerra o ciclo do pedido.
func (s OrderState) IsTerminal() bool {
	return s == OrderCommitted || s == OrderRejected
}
