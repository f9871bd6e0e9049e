package domain

import "time"

// Nomes de eventos publicados pelo emissor de notificações.
const (
	EventStockChanged    = "stock.changed"
	EventProductArchived = "product.archived"
)

// Event é a mensagem entregue aos ouvintes externos (melhor esforço, no máximo uma vez).
type Event struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Payload     interface{} `json:"payload"`
}

// StockChanged é o payload de EventStockChanged.
type StockChanged struct {
	ProductID string `json:"product_id"`
	OrderID   string `json:"order_id,omitempty"`
	Delta     int    `json:"delta"`
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason"`
}

// ProductArchivedEvent é o payload de EventProductArchived.
type ProductArchivedEvent struct {
	ProductID string    `json:"product_id"`
	By        string    `json:"by"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}
