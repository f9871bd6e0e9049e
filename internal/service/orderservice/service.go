// Package orderservice é o processador de pedidos: valida contra o estoque lido
// na hora, grava o pedido com o decremento e publica a mudança de estoque.
package orderservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/policy"
)

// ProductReader lê o produto direto da fonte, sem cache.
type ProductReader interface {
	Fetch(ctx context.Context, id string) (domain.Product, error)
}

// OrderRepository grava o pedido e decrementa o estoque na mesma transação.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.Order, error)
}

// Locker concede a seção crítica de um produto.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// EventEmitter publica eventos sem bloquear.
type EventEmitter interface {
	Emit(name, aggregateID string, payload interface{})
}

type Service struct {
	products ProductReader
	orders   OrderRepository
	locks    Locker
	events   EventEmitter
	tracer   trace.Tracer
	logger   logger.Logger
	now      func() time.Time
}

func NewService(products ProductReader, orders OrderRepository, locks Locker, events EventEmitter, tp trace.TracerProvider, log logger.Logger) *Service {
	return &Service{
		products: products,
		orders:   orders,
		locks:    locks,
		events:   events,
		tracer:   tp.Tracer("bookstock/orderservice"),
		logger:   log,
		now:      time.Now,
	}
}

// submission acompanha um pedido pela máquina de estados.
type submission struct {
	req   domain.OrderRequest
	state domain.OrderState
	span  trace.Span
	log   logger.Logger
}

func (s *submission) transition(next domain.OrderState) {
	if !s.state.CanTransition(next) {
		// Só acontece com erro de programação; o estado não muda.
		s.log.Warn("Transição de estado inválida ignorada.", map[string]interface{}{
			"product_id": s.req.ProductID,
			"from":       string(s.state),
			"to":         string(next),
		})
		return
	}
	s.span.AddEvent("order."+string(next), trace.WithAttributes(attribute.String("order.previous_state", string(s.state))))
	s.state = next
}

// Submit processa um pedido: Received -> Validated -> Committed, ou Received -> Rejected.
// Rejeições não gravam nada e não mexem no estoque. Avisos da validação acompanham
// o resultado em qualquer caminho de aceite.
func (s *Service) Submit(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "orderservice.Submit", trace.WithAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.Int("order.quantity", req.Quantity),
	))
	defer span.End()

	sub := &submission{req: req, state: domain.OrderReceived, span: span, log: s.logger}

	if d := policy.ValidateOrderRequest(req); d.Rejected() {
		return s.reject(sub, d)
	}

	release, err := s.locks.Acquire(ctx, req.ProductID)
	if err != nil {
		return s.fail(sub, criticalSectionError(req.ProductID, err))
	}

	order, decision, err := s.commit(ctx, sub)
	release()

	if err != nil {
		return s.fail(sub, err)
	}
	if decision.Rejected() {
		return s.reject(sub, decision)
	}

	// Fora da seção crítica: a publicação nunca segura o produto.
	s.events.Emit(domain.EventStockChanged, order.ProductID, domain.StockChanged{
		ProductID: order.ProductID,
		OrderID:   order.ID,
		Delta:     -order.Quantity,
		Remaining: decision.Available - order.Quantity,
		Reason:    "order",
	})

	s.logger.Info("Pedido confirmado.", map[string]interface{}{
		"order_id":   order.ID,
		"product_id": order.ProductID,
		"quantity":   order.Quantity,
		"warnings":   len(decision.Warnings),
	})
	span.SetAttributes(attribute.String("order.id", order.ID), attribute.String("order.state", string(order.State)))
	return domain.OrderResult{Order: order, Warnings: decision.Warnings}, nil
}

// commit executa ler-validar-escrever. Deve ser chamado com a seção crítica do produto.
// Em aceite, decision.Available carrega o estoque lido antes do decremento.
func (s *Service) commit(ctx context.Context, sub *submission) (domain.Order, policy.Decision, error) {
	var snapshot *domain.Product
	product, err := s.products.Fetch(ctx, sub.req.ProductID)
	switch {
	case err == nil:
		snapshot = &product
	case apperror.IsNotFound(err):
		// Produto ausente: a política decide (regra 2).
	default:
		return domain.Order{}, policy.Decision{}, err
	}

	decision := policy.EvaluateOrder(sub.req, snapshot)
	if decision.Rejected() {
		return domain.Order{}, decision, nil
	}
	sub.transition(domain.OrderValidated)
	decision.Available = product.StockQuantity

	order := domain.Order{
		ID:        uuid.NewString(),
		ProductID: sub.req.ProductID,
		Quantity:  sub.req.Quantity,
		State:     domain.OrderCommitted,
		CreatedBy: sub.req.Actor,
		CreatedAt: s.now().UTC(),
	}

	saved, err := s.orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, policy.Decision{}, err
	}
	sub.transition(domain.OrderCommitted)
	return saved, decision, nil
}

func (s *Service) reject(sub *submission, d policy.Decision) (domain.OrderResult, error) {
	sub.transition(domain.OrderRejected)
	err := d.Err()

	s.logger.Info("Pedido rejeitado.", map[string]interface{}{
		"product_id": sub.req.ProductID,
		"quantity":   sub.req.Quantity,
		"reason":     d.Reason,
	})
	sub.span.SetAttributes(attribute.String("order.state", string(domain.OrderRejected)), attribute.String("order.reject_reason", d.Reason))
	sub.span.SetStatus(codes.Error, d.Reason)
	return domain.OrderResult{}, err
}

// fail encerra o pedido por erro de infraestrutura ou conflito detectado na gravação.
func (s *Service) fail(sub *submission, err error) (domain.OrderResult, error) {
	if sub.state == domain.OrderReceived {
		sub.transition(domain.OrderRejected)
	}
	sub.span.RecordError(err)
	sub.span.SetStatus(codes.Error, err.Error())

	var internal *apperror.InternalError
	if errors.As(err, &internal) {
		s.logger.Error("Falha ao processar pedido.", err)
	} else {
		s.logger.Info("Pedido não concluído.", map[string]interface{}{"product_id": sub.req.ProductID, "error": err.Error()})
	}
	return domain.OrderResult{}, err
}

// GetOrder busca um pedido confirmado.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if id == "" {
		return domain.Order{}, apperror.NewValidationError("ID do pedido é obrigatório.")
	}
	return s.orders.FindByID(ctx, id)
}

// ListProductOrders lista os pedidos confirmados de um produto existente.
func (s *Service) ListProductOrders(ctx context.Context, productID string) ([]domain.Order, error) {
	if productID == "" {
		return nil, apperror.NewValidationError("ID do produto é obrigatório.")
	}
	if _, err := s.products.Fetch(ctx, productID); err != nil {
		return nil, err
	}
	return s.orders.ListByProduct(ctx, productID)
}

func criticalSectionError(productID string, err error) error {
	return apperror.NewTimeoutError(fmt.Sprintf("produto %s ocupado por outra operação de estoque", productID), err)
}
