package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/cache"
	"bookstock/internal/pkg/logger"
)

const productColumns = `id, name, category, price, stock_quantity, in_stock, supplier_id,
	status, archived_at, archived_by, archive_reason, created_at, updated_at`

// ProductRepository é o ledger de inventário: dono do contador de estoque de cada produto.
type ProductRepository struct {
	DB        *sqlx.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository injeta as dependências de infraestrutura (DB e Cache).
func NewProductRepository(db *sqlx.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// Create persiste um novo produto.
func (r *ProductRepository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := r.DB.Rebind(`INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.DB.ExecContext(ctxTimeout, query,
		p.ID, p.Name, p.Category, p.Price, p.StockQuantity, p.InStock, p.SupplierID,
		p.Status, p.ArchivedAt, p.ArchivedBy, p.ArchiveReason, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao criar produto", err)
	}

	r.logger.Info("Produto criado.", map[string]interface{}{"product_id": p.ID, "stock_quantity": p.StockQuantity})
	return p, nil
}

// FindByID busca um produto pelo ID com a estratégia Cache-Aside.
// Serve apenas leituras de exibição; decisões de estoque usam Fetch.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := cache.ProductKey(id)

	cached, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		var p domain.Product
		if json.Unmarshal([]byte(cached), &p) == nil {
			return p, nil
		}
		r.logger.Warn("Entrada de cache corrompida, lendo do DB.", map[string]interface{}{"key": key})
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Falha ao ler do cache, lendo do DB.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	p, err := r.get(ctxTimeout, r.DB, id)
	if err != nil {
		return domain.Product{}, err
	}

	if body, marshalErr := json.Marshal(p); marshalErr == nil {
		if setErr := r.Cache.Set(ctxTimeout, key, body, r.CacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": setErr.Error()})
		}
	}
	return p, nil
}

// Fetch lê o produto direto do DB, ignorando o cache.
func (r *ProductRepository) Fetch(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	return r.get(ctxTimeout, r.DB, id)
}

func (r *ProductRepository) get(ctx context.Context, q sqlx.QueryerContext, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, q, &p, r.DB.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto", err)
	}
	return p, nil
}

// List aplica paginação e filtros de nome e fornecedor. Arquivados ficam de fora por padrão.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if !filter.IncludeArchived {
		where = append(where, "status = ?")
		args = append(args, domain.ProductActive)
	}
	if filter.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.SupplierID != "" {
		where = append(where, "supplier_id = ?")
		args = append(args, filter.SupplierID)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name, id LIMIT ? OFFSET ?"

	limit, offset := pageBounds(filter.Page, filter.Limit)
	args = append(args, limit, offset)

	products := []domain.Product{}
	if err := r.DB.SelectContext(ctxTimeout, &products, r.DB.Rebind(query), args...); err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos", err)
	}
	return products, nil
}

// pageBounds normaliza página (a partir de 1) e limite (1..100, padrão 20).
func pageBounds(page, limit int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// ListLowStock devolve produtos ativos, em estoque, abaixo do limite, do menor para o maior estoque.
func (r *ProductRepository) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products
		WHERE stock_quantity < ? AND in_stock = ? AND status = ?
		ORDER BY stock_quantity ASC, name`)

	products := []domain.Product{}
	if err := r.DB.SelectContext(ctxTimeout, &products, query, threshold, true, domain.ProductActive); err != nil {
		r.logger.Error("Falha ao listar produtos com estoque baixo.", err)
		return nil, apperror.NewDBError("Falha ao listar estoque baixo", err)
	}
	return products, nil
}

// ListBySupplier devolve todos os produtos de um fornecedor, inclusive arquivados.
func (r *ProductRepository) ListBySupplier(ctx context.Context, supplierID string) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products WHERE supplier_id = ? ORDER BY name`)

	products := []domain.Product{}
	if err := r.DB.SelectContext(ctxTimeout, &products, query, supplierID); err != nil {
		r.logger.Error("Falha ao listar produtos do fornecedor.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos do fornecedor", err)
	}
	return products, nil
}

// AdjustStock soma delta ao contador e recalcula in_stock na mesma instrução.
// A guarda no WHERE mantém o contador entre 0 e domain.MaxStockQuantity: com estoque
// insuficiente, limite excedido ou produto inexistente nenhuma linha é afetada e o retorno é 0.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int64, error) {
	if delta < -domain.MaxStockQuantity || delta > domain.MaxStockQuantity {
		return 0, apperror.NewValidationError(fmt.Sprintf("Ajuste de estoque fora do intervalo: %d.", delta))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// Os limites são calculados aqui para que nenhuma soma no WHERE estoure INTEGER.
	lower, upper := 0, domain.MaxStockQuantity
	if delta < 0 {
		lower = -delta
	} else {
		upper = domain.MaxStockQuantity - delta
	}

	query := r.DB.Rebind(`UPDATE products
		SET stock_quantity = stock_quantity + ?,
		    in_stock = (stock_quantity + ? > 0),
		    updated_at = ?
		WHERE id = ? AND stock_quantity >= ? AND stock_quantity <= ?`)

	result, err := r.DB.ExecContext(ctxTimeout, query, delta, delta, time.Now().UTC(), id, lower, upper)
	if err != nil {
		r.logger.Error("Falha ao ajustar estoque.", err)
		return 0, apperror.NewDBError("Falha ao ajustar estoque", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if affected > 0 {
		r.invalidate(ctxTimeout, id)
		r.logger.Debug("Estoque ajustado.", map[string]interface{}{"product_id": id, "delta": delta})
	}
	return affected, nil
}

// SetStatus grava a mudança de status. Só afeta a linha se o status atual for diferente
// do novo, então um segundo arquivamento concorrente retorna 0.
func (r *ProductRepository) SetStatus(ctx context.Context, id string, change domain.StatusChange) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := r.DB.Rebind(`UPDATE products
		SET status = ?, archived_at = ?, archived_by = ?, archive_reason = ?, updated_at = ?
		WHERE id = ? AND status <> ?`)

	result, err := r.DB.ExecContext(ctxTimeout, query,
		change.Status, change.At, change.By, change.Reason, change.At, id, change.Status,
	)
	if err != nil {
		r.logger.Error("Falha ao alterar status do produto.", err)
		return 0, apperror.NewDBError("Falha ao alterar status do produto", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected > 0 {
		r.invalidate(ctxTimeout, id)
	}
	return affected, nil
}

func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.Cache.Delete(ctx, cache.ProductKey(id)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}
}
