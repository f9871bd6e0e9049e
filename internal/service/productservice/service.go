package productservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/policy"
)

// ProductRepository é o que o serviço precisa do ledger de inventário.
type ProductRepository interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	Fetch(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error)
	SetStatus(ctx context.Context, id string, change domain.StatusChange) (int64, error)
}

// SupplierReader resolve a referência de fornecedor na criação.
type SupplierReader interface {
	GetSupplierByID(ctx context.Context, id string) (domain.Supplier, error)
}

// Locker concede a seção crítica de um produto.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// EventEmitter publica eventos sem bloquear.
type EventEmitter interface {
	Emit(name, aggregateID string, payload interface{})
}

// Service é a estrutura que implementa as regras de catálogo.
type Service struct {
	repo           ProductRepository
	suppliers      SupplierReader
	locks          Locker
	events         EventEmitter
	logger         logger.Logger
	lowStockTarget int
	now            func() time.Time
}

// NewService cria o serviço. lowStockTarget é o limite do campo derivado lowStock.
func NewService(repo ProductRepository, suppliers SupplierReader, locks Locker, events EventEmitter, lowStockTarget int, log logger.Logger) *Service {
	return &Service{
		repo:           repo,
		suppliers:      suppliers,
		locks:          locks,
		events:         events,
		logger:         log,
		lowStockTarget: lowStockTarget,
		now:            time.Now,
	}
}

// CreateProduct valida o payload, aplica a política de criação e persiste.
// Os avisos da política voltam junto com o produto criado.
func (s *Service) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (domain.ProductResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.SupplierID = strings.TrimSpace(req.SupplierID)

	if req.Name == "" {
		return domain.ProductResult{}, apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if req.Price != nil && req.Price.IsNegative() {
		return domain.ProductResult{}, apperror.NewValidationError("O preço não pode ser negativo.")
	}
	if req.StockQuantity < 0 {
		return domain.ProductResult{}, apperror.NewValidationError("O estoque inicial não pode ser negativo.")
	}
	if req.StockQuantity > domain.MaxStockQuantity {
		return domain.ProductResult{}, apperror.NewValidationError(fmt.Sprintf("O estoque inicial não pode passar de %d.", domain.MaxStockQuantity))
	}

	var supplier *domain.Supplier
	if req.SupplierID != "" {
		found, err := s.suppliers.GetSupplierByID(ctx, req.SupplierID)
		switch {
		case err == nil:
			supplier = &found
		case apperror.IsNotFound(err):
		default:
			return domain.ProductResult{}, err
		}
	}

	decision := policy.EvaluateProductCreation(req, supplier)
	if decision.Rejected() {
		s.logger.Info("Criação de produto rejeitada.", map[string]interface{}{"reason": decision.Reason, "supplier_id": req.SupplierID})
		return domain.ProductResult{}, decision.Err()
	}

	now := s.now().UTC()
	product := domain.Product{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Category:      strings.ToUpper(strings.TrimSpace(req.Category)),
		Price:         decimal.Zero,
		StockQuantity: req.StockQuantity,
		InStock:       req.StockQuantity > 0,
		Status:        domain.ProductActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}
	if supplier != nil {
		product.SupplierID = &supplier.ID
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return domain.ProductResult{}, err
	}

	return domain.ProductResult{
		Product:  policy.Derive(created, s.lowStockTarget),
		Warnings: decision.Warnings,
	}, nil
}

// GetProduct devolve o produto (via cache) com os campos derivados.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.ProductView, error) {
	if id == "" {
		return domain.ProductView{}, apperror.NewValidationError("ID do produto é obrigatório.")
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.ProductView{}, err
	}
	return policy.Derive(p, s.lowStockTarget), nil
}

// ListProducts lista com paginação e filtros.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductView, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return policy.DeriveAll(products, s.lowStockTarget), nil
}

// LowStockProducts lista produtos em estoque abaixo do limite (padrão 50), do menor estoque
// para o maior, com avisos de itens críticos.
func (s *Service) LowStockProducts(ctx context.Context, threshold int) (domain.ProductList, error) {
	if threshold < 0 {
		return domain.ProductList{}, apperror.NewValidationError("O limite de estoque não pode ser negativo.")
	}
	if threshold == 0 {
		threshold = domain.DefaultLowStockThreshold
	}

	products, err := s.repo.ListLowStock(ctx, threshold)
	if err != nil {
		return domain.ProductList{}, err
	}

	return domain.ProductList{
		Products: policy.DeriveAll(products, s.lowStockTarget),
		Warnings: policy.LowStockWarnings(products, threshold),
	}, nil
}

// ArchiveProduct arquiva o produto com data, autor e motivo. Não há desarquivamento:
// um segundo pedido de arquivamento é sempre ConflictError, qualquer que seja o motivo.
func (s *Service) ArchiveProduct(ctx context.Context, req domain.ArchiveRequest) (domain.ProductView, error) {
	req.Reason = strings.TrimSpace(req.Reason)
	if req.ProductID == "" || req.Reason == "" {
		return domain.ProductView{}, apperror.NewValidationError("ID do produto e motivo são obrigatórios.")
	}

	release, err := s.locks.Acquire(ctx, req.ProductID)
	if err != nil {
		return domain.ProductView{}, apperror.NewTimeoutError(fmt.Sprintf("produto %s ocupado por outra operação", req.ProductID), err)
	}
	archived, err := s.archive(ctx, req)
	release()
	if err != nil {
		return domain.ProductView{}, err
	}

	s.events.Emit(domain.EventProductArchived, archived.ID, domain.ProductArchivedEvent{
		ProductID: archived.ID,
		By:        req.Actor,
		Reason:    req.Reason,
		At:        *archived.ArchivedAt,
	})
	s.logger.Info("Produto arquivado.", map[string]interface{}{"product_id": archived.ID, "by": req.Actor})
	return policy.Derive(archived, s.lowStockTarget), nil
}

func (s *Service) archive(ctx context.Context, req domain.ArchiveRequest) (domain.Product, error) {
	p, err := s.repo.Fetch(ctx, req.ProductID)
	if err != nil {
		return domain.Product{}, err
	}
	if p.IsArchived() {
		return domain.Product{}, apperror.NewConflictError(fmt.Sprintf("Produto %s já está arquivado.", req.ProductID))
	}

	change := domain.StatusChange{
		Status: domain.ProductArchived,
		At:     s.now().UTC(),
		By:     req.Actor,
		Reason: req.Reason,
	}
	affected, err := s.repo.SetStatus(ctx, req.ProductID, change)
	if err != nil {
		return domain.Product{}, err
	}
	if affected == 0 {
		return domain.Product{}, apperror.NewConflictError(fmt.Sprintf("Produto %s já está arquivado.", req.ProductID))
	}

	p.Status = change.Status
	p.ArchivedAt = &change.At
	p.ArchivedBy = &change.By
	p.ArchiveReason = &change.Reason
	p.UpdatedAt = change.At
	return p, nil
}
