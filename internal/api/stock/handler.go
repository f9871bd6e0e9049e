package stock

import (
	"context"
	"net/http"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/pkg/middleware"
	"bookstock/internal/pkg/response"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	ReduceStock(ctx context.Context, adj domain.StockAdjustment) (domain.StockLevel, error)
	BoostStock(ctx context.Context, adj domain.StockAdjustment) (domain.StockLevel, error)
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// ReduceStockHandler lida com a requisição POST /v1/products/{id}/stock/reduce.
// @Summary Reduz o estoque de um produto
// @Tags stock
// @Accept json
// @Produce json
// @Param id path string true "ID do produto"
// @Param adjustment body domain.StockAdjustment true "Quantidade a retirar"
// @Success 200 {object} domain.StockLevel
// @Failure 400 {object} domain.ErrorResponse "Quantidade inválida"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Estoque insuficiente"
// @Failure 503 {object} domain.ErrorResponse "Produto ocupado"
// @Security ApiKeyAuth
// @Router /products/{id}/stock/reduce [post]
func (h *Handler) ReduceStockHandler(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.Service.ReduceStock)
}

// BoostStockHandler lida com a requisição POST /v1/products/{id}/stock/boost.
// @Summary Reforça o estoque de um produto
// @Tags stock
// @Accept json
// @Produce json
// @Param id path string true "ID do produto"
// @Param adjustment body domain.StockAdjustment true "Quantidade a somar"
// @Success 200 {object} domain.StockLevel
// @Failure 400 {object} domain.ErrorResponse "Quantidade inválida"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 503 {object} domain.ErrorResponse "Produto ocupado"
// @Security ApiKeyAuth
// @Router /products/{id}/stock/boost [post]
func (h *Handler) BoostStockHandler(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.Service.BoostStock)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.StockAdjustment) (domain.StockLevel, error)) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, h.Logger, apperror.NewUnauthorizedError("Usuário não autenticado."))
		return
	}

	var adj domain.StockAdjustment
	if err := response.Decode(r, &adj); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	adj.ProductID = r.PathValue("id")
	adj.Actor = claims.UserID

	level, err := op(r.Context(), adj)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, level)
}
