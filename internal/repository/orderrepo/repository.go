package orderrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/cache"
	"bookstock/internal/pkg/database"
	"bookstock/internal/pkg/logger"
)

// OrderRepository persiste pedidos aceitos e executa o decremento de estoque
// na mesma transação.
type OrderRepository struct {
	DB        *sqlx.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
	rowLocks  bool
}

func NewOrderRepository(db *sqlx.DB, cacheClient cache.Client, dbTimeout time.Duration, log logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    log,
		rowLocks:  database.SupportsRowLocks(db),
	}
}

// Create grava o pedido e decrementa o estoque do produto de forma atômica.
// No Postgres a linha do produto fica presa com FOR UPDATE até o commit; em qualquer
// driver o UPDATE só afeta a linha se ainda houver estoque suficiente.
// Sem linha afetada, nada é persistido e o retorno é ConflictError.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	r.logger.Debug("Iniciando gravação de pedido.", map[string]interface{}{
		"order_id":   order.ID,
		"product_id": order.ProductID,
		"quantity":   order.Quantity,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação do pedido.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if r.rowLocks {
		var current int
		err = tx.GetContext(ctxTimeout, &current, tx.Rebind(`SELECT stock_quantity FROM products WHERE id = ? FOR UPDATE`), order.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", order.ProductID))
		}
		if err != nil {
			r.logger.Error("Falha ao travar a linha do produto.", err)
			return domain.Order{}, apperror.NewDBError("Falha ao travar produto", err)
		}
		if current < order.Quantity {
			return domain.Order{}, apperror.NewInsufficientStockError("insufficient stock", current, order.Quantity)
		}
	}

	insert := tx.Rebind(`INSERT INTO orders (id, product_id, quantity, state, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if _, err = tx.ExecContext(ctxTimeout, insert,
		order.ID, order.ProductID, order.Quantity, order.State, order.CreatedBy, order.CreatedAt,
	); err != nil {
		r.logger.Error("Falha ao inserir pedido.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao inserir pedido", err)
	}

	decrement := tx.Rebind(`UPDATE products
		SET stock_quantity = stock_quantity - ?,
		    in_stock = (stock_quantity - ? > 0),
		    updated_at = ?
		WHERE id = ? AND stock_quantity >= ?`)
	result, err := tx.ExecContext(ctxTimeout, decrement,
		order.Quantity, order.Quantity, time.Now().UTC(), order.ProductID, order.Quantity,
	)
	if err != nil {
		r.logger.Error("Falha ao decrementar estoque.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao decrementar estoque", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Order{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if affected == 0 {
		r.logger.Warn("Decremento não aplicado: estoque mudou desde a validação.", map[string]interface{}{
			"order_id":   order.ID,
			"product_id": order.ProductID,
			"quantity":   order.Quantity,
		})
		return domain.Order{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação do pedido.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	if err := r.Cache.Delete(ctx, cache.ProductKey(order.ProductID)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"product_id": order.ProductID, "error": err.Error()})
	}

	r.logger.Info("Pedido gravado e estoque decrementado.", map[string]interface{}{
		"order_id":   order.ID,
		"product_id": order.ProductID,
		"quantity":   order.Quantity,
	})
	return order, nil
}

// FindByID busca um pedido gravado.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var order domain.Order
	err := r.DB.GetContext(ctxTimeout, &order,
		r.DB.Rebind(`SELECT id, product_id, quantity, state, created_by, created_at FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, apperror.NewDBError("Falha ao buscar pedido", err)
	}
	return order, nil
}

// ListByProduct devolve os pedidos de um produto, do mais recente ao mais antigo.
func (r *OrderRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	orders := []domain.Order{}
	err := r.DB.SelectContext(ctxTimeout, &orders,
		r.DB.Rebind(`SELECT id, product_id, quantity, state, created_by, created_at
			FROM orders WHERE product_id = ? ORDER BY created_at DESC, id`), productID)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos do produto.", err)
		return nil, apperror.NewDBError("Falha ao listar pedidos", err)
	}
	return orders, nil
}
