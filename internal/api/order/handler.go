package order

import (
	"context"
	"net/http"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/pkg/middleware"
	"bookstock/internal/pkg/response"
)

// OrderService define o contrato que o Handler espera do processador de pedidos.
type OrderService interface {
	Submit(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListProductOrders(ctx context.Context, productID string) ([]domain.Order, error)
}

// Handler agrupa os métodos de Handler de pedidos.
type Handler struct {
	Service OrderService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// SubmitOrderHandler lida com a requisição POST /v1/orders.
// @Summary Submete um pedido
// @Description Valida e reserva o estoque do produto. Avisos (estoque baixo, quantidade alta) vêm em "warnings".
// @Tags orders
// @Accept json
// @Produce json
// @Param order body domain.OrderRequest true "Produto e quantidade"
// @Success 201 {object} domain.OrderResult
// @Failure 400 {object} domain.ErrorResponse "Parâmetros ausentes ou inválidos"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Sem estoque ou estoque insuficiente"
// @Failure 503 {object} domain.ErrorResponse "Produto ocupado"
// @Security ApiKeyAuth
// @Router /orders [post]
func (h *Handler) SubmitOrderHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, h.Logger, apperror.NewUnauthorizedError("Usuário não autenticado."))
		return
	}

	var req domain.OrderRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	req.Actor = claims.UserID

	result, err := h.Service.Submit(r.Context(), req)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusCreated, result)
}

// GetOrderHandler lida com a requisição GET /v1/orders/{id}.
// @Summary Obtém um pedido por ID
// @Tags orders
// @Produce json
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order
// @Failure 404 {object} domain.ErrorResponse "Pedido não encontrado"
// @Security ApiKeyAuth
// @Router /orders/{id} [get]
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, o)
}

// ListProductOrdersHandler lida com a requisição GET /v1/products/{id}/orders.
// @Summary Lista os pedidos de um produto
// @Tags orders
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {array} domain.Order
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Security ApiKeyAuth
// @Router /products/{id}/orders [get]
func (h *Handler) ListProductOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ListProductOrders(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, orders)
}
