package supplierservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/policy"
)

// SupplierRepository define o contrato que o Serviço de Fornecedores espera da camada de Persistência.
type SupplierRepository interface {
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id string) (domain.Supplier, error)
	GetAllSuppliers(ctx context.Context) ([]domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
	CountProducts(ctx context.Context, id string) (int, error)
}

// ProductLister lista os produtos de um fornecedor para o resumo de inventário.
type ProductLister interface {
	ListBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error)
}

// Service é a estrutura que implementa a lógica de negócio para fornecedores.
type Service struct {
	repo     SupplierRepository
	products ProductLister
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Fornecedores.
func NewService(repo SupplierRepository, products ProductLister, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		logger:   log,
	}
}

// CreateSupplier cria um novo fornecedor.
func (s *Service) CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)
	s.logger.Debug("Iniciando criação de fornecedor no serviço.", map[string]interface{}{"name": supplier.Name})

	if err := validateSupplierName(supplier.Name); err != nil {
		s.logger.Warn("Falha na validação do nome do fornecedor.", map[string]interface{}{"name": supplier.Name, "error": err.Error()})
		return domain.Supplier{}, err
	}

	supplier.ID = uuid.New().String()

	created, err := s.repo.CreateSupplier(ctx, supplier)
	if err != nil {
		s.logger.Error("Falha ao criar fornecedor no repositório.", err)
		return domain.Supplier{}, err
	}

	s.logger.Info("Fornecedor criado com sucesso.", map[string]interface{}{"id": created.ID, "name": created.Name})
	return created, nil
}

// GetSupplierByID busca um fornecedor pelo ID.
func (s *Service) GetSupplierByID(ctx context.Context, id string) (domain.Supplier, error) {
	if err := validateSupplierID(id); err != nil {
		return domain.Supplier{}, err
	}
	return s.repo.GetSupplierByID(ctx, id)
}

// GetAllSuppliers busca todos os fornecedores.
func (s *Service) GetAllSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.repo.GetAllSuppliers(ctx)
	if err != nil {
		s.logger.Error("Falha ao buscar todos os fornecedores no repositório.", err)
		return nil, err
	}

	s.logger.Info("Fornecedores listados.", map[string]interface{}{"count": len(suppliers)})
	return suppliers, nil
}

// UpdateSupplier atualiza o nome de um fornecedor existente.
func (s *Service) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	supplier.Name = strings.TrimSpace(supplier.Name)

	if err := validateSupplierID(supplier.ID); err != nil {
		return domain.Supplier{}, err
	}
	if err := validateSupplierName(supplier.Name); err != nil {
		s.logger.Warn("Falha na validação do nome do fornecedor para atualização.", map[string]interface{}{"name": supplier.Name, "error": err.Error()})
		return domain.Supplier{}, err
	}

	updated, err := s.repo.UpdateSupplier(ctx, supplier)
	if err != nil {
		return domain.Supplier{}, err
	}

	s.logger.Info("Fornecedor atualizado com sucesso.", map[string]interface{}{"id": updated.ID, "name": updated.Name})
	return updated, nil
}

// DeleteSupplier remove um fornecedor que nenhum produto referencia mais.
func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	if err := validateSupplierID(id); err != nil {
		return err
	}

	n, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("Exclusão de fornecedor bloqueada por produtos vinculados.", map[string]interface{}{"id": id, "products": n})
		return apperror.NewConflictError(fmt.Sprintf("Fornecedor %s ainda possui %d produto(s) vinculado(s).", id, n))
	}

	if err := s.repo.DeleteSupplier(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Fornecedor deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// SupplierStats resume o inventário do fornecedor, incluindo produtos arquivados.
func (s *Service) SupplierStats(ctx context.Context, id string) (domain.SupplierStats, error) {
	if err := validateSupplierID(id); err != nil {
		return domain.SupplierStats{}, err
	}

	supplier, err := s.repo.GetSupplierByID(ctx, id)
	if err != nil {
		return domain.SupplierStats{}, err
	}

	products, err := s.products.ListBySupplier(ctx, id)
	if err != nil {
		return domain.SupplierStats{}, err
	}

	stats := domain.SupplierStats{
		Supplier:            supplier.Name,
		TotalProducts:       len(products),
		TotalInventoryValue: policy.InventoryValue(products),
	}
	for _, p := range products {
		if p.InStock {
			stats.InStockProducts++
		} else {
			stats.OutOfStockProducts++
		}
	}

	s.logger.Debug("Resumo de fornecedor calculado.", map[string]interface{}{"id": id, "total_products": stats.TotalProducts})
	return stats, nil
}

func validateSupplierID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError("O ID do fornecedor deve ser um UUID válido.")
	}
	return nil
}

func validateSupplierName(name string) error {
	if name == "" {
		return apperror.NewValidationError("O nome do fornecedor não pode ser vazio.")
	}
	if len(name) > 255 {
		return apperror.NewValidationError("O nome do fornecedor deve ter no máximo 255 caracteres.")
	}
	return nil
}
