package stockservice

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
)

// ProductLedger define o contrato que o Serviço de Estoque espera da camada de Persistência.
type ProductLedger interface {
	Fetch(ctx context.Context, id string) (domain.Product, error)
	AdjustStock(ctx context.Context, id string, delta int) (int64, error)
}

// Locker concede a seção crítica de um produto.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// EventEmitter publica eventos sem bloquear.
type EventEmitter interface {
	Emit(name, aggregateID string, payload interface{})
}

// Service executa os ajustes administrativos de estoque.
type Service struct {
	repo   ProductLedger
	locks  Locker
	events EventEmitter
	tracer trace.Tracer
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo ProductLedger, locks Locker, events EventEmitter, tp trace.TracerProvider, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		locks:  locks,
		events: events,
		tracer: tp.Tracer("bookstock/stockservice"),
		logger: log,
	}
}

func validate(adj domain.StockAdjustment) error {
	if adj.ProductID == "" {
		return apperror.NewValidationError("ID do produto é obrigatório.")
	}
	if adj.Quantity <= 0 {
		return apperror.NewValidationError("A quantidade do ajuste deve ser maior que zero.")
	}
	if adj.Quantity > domain.MaxStockQuantity {
		return apperror.NewValidationError(fmt.Sprintf("A quantidade do ajuste não pode passar de %d.", domain.MaxStockQuantity))
	}
	return nil
}

// ReduceStock retira unidades do estoque. Mesmas checagens de existência e
// saldo do pedido: NotFound ou Conflict, sem mudança de estado.
func (s *Service) ReduceStock(ctx context.Context, adj domain.StockAdjustment) (domain.StockLevel, error) {
	ctx, span := s.tracer.Start(ctx, "stockservice.ReduceStock", trace.WithAttributes(
		attribute.String("product.id", adj.ProductID),
		attribute.Int("stock.quantity", adj.Quantity),
	))
	defer span.End()

	if err := validate(adj); err != nil {
		return domain.StockLevel{}, err
	}

	level, err := s.withProduct(ctx, adj.ProductID, func() (domain.StockLevel, error) {
		return s.reduce(ctx, adj)
	})
	if err != nil {
		return domain.StockLevel{}, err
	}

	s.emit(adj, -adj.Quantity, level.StockQuantity, "reduce")
	s.logger.Info("Estoque reduzido.", map[string]interface{}{
		"product_id": adj.ProductID,
		"quantity":   adj.Quantity,
		"remaining":  level.StockQuantity,
		"actor":      adj.Actor,
	})
	return level, nil
}

// reduce roda dentro da seção crítica do produto.
func (s *Service) reduce(ctx context.Context, adj domain.StockAdjustment) (domain.StockLevel, error) {
	product, err := s.repo.Fetch(ctx, adj.ProductID)
	if err != nil {
		return domain.StockLevel{}, err
	}

	if product.StockQuantity < adj.Quantity {
		s.logger.Info("Redução rejeitada por estoque insuficiente.", map[string]interface{}{
			"product_id": adj.ProductID,
			"available":  product.StockQuantity,
			"requested":  adj.Quantity,
		})
		return domain.StockLevel{}, apperror.NewInsufficientStockError("insufficient stock", product.StockQuantity, adj.Quantity)
	}

	affected, err := s.repo.AdjustStock(ctx, adj.ProductID, -adj.Quantity)
	if err != nil {
		return domain.StockLevel{}, err
	}
	if affected == 0 {
		return domain.StockLevel{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	remaining := product.StockQuantity - adj.Quantity
	return domain.StockLevel{
		ProductID:     adj.ProductID,
		StockQuantity: remaining,
		InStock:       remaining > 0,
		Message:       fmt.Sprintf("Stock reduced by %d", adj.Quantity),
	}, nil
}

// BoostStock soma unidades ao estoque, sem condição além da existência do produto.
func (s *Service) BoostStock(ctx context.Context, adj domain.StockAdjustment) (domain.StockLevel, error) {
	ctx, span := s.tracer.Start(ctx, "stockservice.BoostStock", trace.WithAttributes(
		attribute.String("product.id", adj.ProductID),
		attribute.Int("stock.quantity", adj.Quantity),
	))
	defer span.End()

	if err := validate(adj); err != nil {
		return domain.StockLevel{}, err
	}

	level, err := s.withProduct(ctx, adj.ProductID, func() (domain.StockLevel, error) {
		return s.boost(ctx, adj)
	})
	if err != nil {
		return domain.StockLevel{}, err
	}

	s.emit(adj, adj.Quantity, level.StockQuantity, "boost")
	s.logger.Info("Estoque reforçado.", map[string]interface{}{
		"product_id": adj.ProductID,
		"quantity":   adj.Quantity,
		"remaining":  level.StockQuantity,
		"actor":      adj.Actor,
	})
	return level, nil
}

// boost roda dentro da seção crítica do produto. O contador nunca passa de
// MaxStockQuantity: um reforço que ultrapassaria o limite é um Conflict.
func (s *Service) boost(ctx context.Context, adj domain.StockAdjustment) (domain.StockLevel, error) {
	product, err := s.repo.Fetch(ctx, adj.ProductID)
	if err != nil {
		return domain.StockLevel{}, err
	}

	if product.StockQuantity > domain.MaxStockQuantity-adj.Quantity {
		s.logger.Info("Reforço rejeitado por exceder o limite do contador.", map[string]interface{}{
			"product_id": adj.ProductID,
			"available":  product.StockQuantity,
			"requested":  adj.Quantity,
		})
		return domain.StockLevel{}, apperror.NewConflictError(
			fmt.Sprintf("O estoque do produto %s não pode passar de %d unidades.", adj.ProductID, domain.MaxStockQuantity))
	}

	affected, err := s.repo.AdjustStock(ctx, adj.ProductID, adj.Quantity)
	if err != nil {
		return domain.StockLevel{}, err
	}
	if affected == 0 {
		return domain.StockLevel{}, apperror.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	remaining := product.StockQuantity + adj.Quantity
	return domain.StockLevel{
		ProductID:     adj.ProductID,
		StockQuantity: remaining,
		InStock:       remaining > 0,
		Message:       fmt.Sprintf("Stock boosted by %d", adj.Quantity),
	}, nil
}

// withProduct executa fn com a seção crítica do produto; a publicação fica de fora.
func (s *Service) withProduct(ctx context.Context, productID string, fn func() (domain.StockLevel, error)) (domain.StockLevel, error) {
	release, err := s.locks.Acquire(ctx, productID)
	if err != nil {
		return domain.StockLevel{}, criticalSectionError(productID, err)
	}
	defer release()
	return fn()
}

func (s *Service) emit(adj domain.StockAdjustment, delta, remaining int, reason string) {
	s.events.Emit(domain.EventStockChanged, adj.ProductID, domain.StockChanged{
		ProductID: adj.ProductID,
		Delta:     delta,
		Remaining: remaining,
		Reason:    reason,
	})
}

func criticalSectionError(productID string, err error) error {
	return apperror.NewTimeoutError(fmt.Sprintf("produto %s ocupado por outra operação de estoque", productID), err)
}
