package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus indica o ciclo de vida administrativo do produto.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductArchived ProductStatus = "archived"
)

// Product representa o item vendável do catálogo (a Entidade).
// O Product é o dono do seu contador de estoque (StockQuantity); pedidos apenas
// solicitam decrementos, que são executados pelo processador de pedidos.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Category      string          `json:"category,omitempty" db:"category"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	InStock       bool            `json:"in_stock" db:"in_stock"`
	SupplierID    *string         `json:"supplier_id,omitempty" db:"supplier_id"`

	Status        ProductStatus `json:"status" db:"status"`
	ArchivedAt    *time.Time    `json:"archived_at,omitempty" db:"archived_at"`
	ArchivedBy    *string       `json:"archived_by,omitempty" db:"archived_by"`
	ArchiveReason *string       `json:"archive_reason,omitempty" db:"archive_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsArchived informa se o produto já foi arquivado.
func (p Product) IsArchived() bool { return p.Status == ProductArchived }

// ProductView é o produto acrescido dos campos derivados calculados na leitura.
type ProductView struct {
	Product
	InventoryValue *decimal.Decimal `json:"inventory_value,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	LowStock       bool             `json:"low_stock"`
	Promotion      string           `json:"promotion,omitempty"`
}

// CreateProductRequest é o payload tipado para criação de produto.
// Price é ponteiro para distinguir "ausente" de "zero".
type CreateProductRequest struct {
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity int              `json:"stock_quantity"`
	InStock       *bool            `json:"in_stock"`
	SupplierID    string           `json:"supplier_id"`
}

// ProductResult agrega o produto criado e os avisos não bloqueantes.
type ProductResult struct {
	Product  ProductView `json:"data"`
	Warnings []Warning   `json:"warnings,omitempty"`
}

// ProductList agrega uma listagem e seus avisos (usado pela consulta de estoque baixo).
type ProductList struct {
	Products []ProductView `json:"data"`
	Warnings []Warning     `json:"warnings,omitempty"`
}

// ArchiveRequest é o payload da ação de arquivamento.
// Actor vem da identidade autenticada, nunca do corpo da requisição.
type ArchiveRequest struct {
	ProductID string `json:"-"`
	Reason    string `json:"reason"`
	Actor     string `json:"-"`
}

// StatusChange descreve os campos gravados por SetStatus no ledger.
type StatusChange struct {
	Status ProductStatus
	At     time.Time
	By     string
	Reason string
}

// ProductFilter define os parâmetros de busca e paginação.
type ProductFilter struct {
	Page            int
	Limit           int
	Name            string
	SupplierID      string
	IncludeArchived bool
}

// DefaultLowStockThreshold é o limite usado quando a consulta não informa um.
const DefaultLowStockThreshold = 50
