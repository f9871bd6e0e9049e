package supplierrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
)

type SupplierRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

func NewSupplierRepository(db *sqlx.DB, dbTimeout time.Duration, log logger.Logger) *SupplierRepository {
	return &SupplierRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

func (r *SupplierRepository) CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	r.logger.Debug("Iniciando CreateSupplier no repositório.", map[string]interface{}{"name": supplier.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if supplier.ID == "" {
		supplier.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	query := r.DB.Rebind(`INSERT INTO suppliers (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`)
	if _, err := r.DB.ExecContext(ctxTimeout, query, supplier.ID, supplier.Name, supplier.CreatedAt, supplier.UpdatedAt); err != nil {
		r.logger.Error("Falha ao inserir fornecedor no DB.", err)
		return domain.Supplier{}, apperror.NewDBError("Falha ao criar fornecedor", err)
	}

	r.logger.Info("Fornecedor criado com sucesso.", map[string]interface{}{"id": supplier.ID, "name": supplier.Name})
	return supplier, nil
}

func (r *SupplierRepository) GetSupplierByID(ctx context.Context, id string) (domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var supplier domain.Supplier
	err := r.DB.GetContext(ctxTimeout, &supplier,
		r.DB.Rebind(`SELECT id, name, created_at, updated_at FROM suppliers WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Fornecedor não encontrado.", map[string]interface{}{"id": id})
		return domain.Supplier{}, apperror.NewNotFoundError(fmt.Sprintf("Fornecedor com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar fornecedor no DB.", err)
		return domain.Supplier{}, apperror.NewDBError("Falha ao buscar fornecedor", err)
	}
	return supplier, nil
}

func (r *SupplierRepository) GetAllSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	suppliers := []domain.Supplier{}
	if err := r.DB.SelectContext(ctxTimeout, &suppliers, `SELECT id, name, created_at, updated_at FROM suppliers ORDER BY name`); err != nil {
		r.logger.Error("Falha ao executar GetAllSuppliers query.", err)
		return nil, apperror.NewDBError("Falha ao buscar todos os fornecedores", err)
	}

	r.logger.Debug("GetAllSuppliers concluído.", map[string]interface{}{"total_suppliers": len(suppliers)})
	return suppliers, nil
}

func (r *SupplierRepository) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	supplier.UpdatedAt = time.Now().UTC()

	result, err := r.DB.ExecContext(ctxTimeout,
		r.DB.Rebind(`UPDATE suppliers SET name = ?, updated_at = ? WHERE id = ?`),
		supplier.Name, supplier.UpdatedAt, supplier.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar fornecedor no DB.", err)
		return domain.Supplier{}, apperror.NewDBError("Falha ao atualizar fornecedor", err)
	}
	if affected, err := result.RowsAffected(); err != nil {
		return domain.Supplier{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	} else if affected == 0 {
		return domain.Supplier{}, apperror.NewNotFoundError(fmt.Sprintf("Fornecedor com ID %s não encontrado para atualização.", supplier.ID))
	}

	r.logger.Info("Fornecedor atualizado com sucesso.", map[string]interface{}{"id": supplier.ID, "name": supplier.Name})
	return r.GetSupplierByID(ctx, supplier.ID)
}

func (r *SupplierRepository) DeleteSupplier(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, r.DB.Rebind(`DELETE FROM suppliers WHERE id = ?`), id)
	if err != nil {
		r.logger.Error("Falha ao deletar fornecedor do DB.", err)
		return apperror.NewDBError("Falha ao deletar fornecedor", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Info("Fornecedor não encontrado para exclusão.", map[string]interface{}{"id": id})
		return apperror.NewNotFoundError(fmt.Sprintf("Fornecedor com ID %s não encontrado para exclusão.", id))
	}

	r.logger.Info("Fornecedor deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// CountProducts conta os produtos que ainda referenciam o fornecedor.
func (r *SupplierRepository) CountProducts(ctx context.Context, id string) (int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int
	if err := r.DB.GetContext(ctxTimeout, &n, r.DB.Rebind(`SELECT COUNT(*) FROM products WHERE supplier_id = ?`), id); err != nil {
		r.logger.Error("Falha ao contar produtos do fornecedor.", err)
		return 0, apperror.NewDBError("Falha ao contar produtos do fornecedor", err)
	}
	return n, nil
}
