package product

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/pkg/middleware"
	"bookstock/internal/pkg/response"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, req domain.CreateProductRequest) (domain.ProductResult, error)
	GetProduct(ctx context.Context, id string) (domain.ProductView, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductView, error)
	LowStockProducts(ctx context.Context, threshold int) (domain.ProductList, error)
	ArchiveProduct(ctx context.Context, req domain.ArchiveRequest) (domain.ProductView, error)
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cria um produto
// @Description Cria um produto no catálogo. Avisos não bloqueantes vêm em "warnings".
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.CreateProductRequest true "Dados do produto"
// @Success 201 {object} domain.ProductResult "Produto criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou fornecedor inexistente"
// @Failure 403 {object} domain.ErrorResponse "Requer papel admin"
// @Security ApiKeyAuth
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	result, err := h.Service.CreateProduct(r.Context(), req)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		h.Logger.Info("Produto criado via API.", map[string]interface{}{
			"product_id": result.Product.ID,
			"user_id":    claims.UserID,
		})
	}
	response.JSON(w, h.Logger, http.StatusCreated, result)
}

// GetProductHandler lida com a requisição GET /v1/products/{id}.
// @Summary Obtém um produto por ID
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.ProductView
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, p)
}

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista produtos
// @Description Paginação por page/limit, filtro por nome e fornecedor. Arquivados só com include_archived=true.
// @Tags products
// @Produce json
// @Param page query int false "Página (a partir de 1)"
// @Param limit query int false "Itens por página (máx. 100)"
// @Param name query string false "Trecho do nome"
// @Param supplier_id query string false "ID do fornecedor"
// @Param include_archived query bool false "Inclui arquivados"
// @Success 200 {array} domain.ProductView
// @Failure 400 {object} domain.ErrorResponse "Parâmetro inválido"
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"), "page")
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	filter := domain.ProductFilter{
		Page:            page,
		Limit:           limit,
		Name:            strings.TrimSpace(q.Get("name")),
		SupplierID:      strings.TrimSpace(q.Get("supplier_id")),
		IncludeArchived: q.Get("include_archived") == "true",
	}

	products, err := h.Service.ListProducts(r.Context(), filter)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, products)
}

// LowStockHandler lida com a requisição GET /v1/products/low-stock.
// @Summary Produtos com estoque baixo
// @Description Produtos em estoque com quantidade abaixo do limite (padrão 50), do menor para o maior.
// @Tags products
// @Produce json
// @Param threshold query int false "Limite de estoque"
// @Success 200 {object} domain.ProductList
// @Failure 400 {object} domain.ErrorResponse "Limite inválido"
// @Router /products/low-stock [get]
func (h *Handler) LowStockHandler(w http.ResponseWriter, r *http.Request) {
	threshold, err := queryInt(r.URL.Query().Get("threshold"), "threshold")
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	list, err := h.Service.LowStockProducts(r.Context(), threshold)
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, list)
}

type archiveBody struct {
	Reason string `json:"reason"`
}

// ArchiveProductHandler lida com a requisição POST /v1/products/{id}/archive.
// @Summary Arquiva um produto
// @Description Marca o produto como arquivado. O autor vem do token.
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "ID do produto"
// @Param body body archiveBody true "Motivo do arquivamento"
// @Success 200 {object} domain.ProductView
// @Failure 400 {object} domain.ErrorResponse "Motivo ausente"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Produto já arquivado"
// @Security ApiKeyAuth
// @Router /products/{id}/archive [post]
func (h *Handler) ArchiveProductHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		response.Error(w, r, h.Logger, apperror.NewUnauthorizedError("Usuário não autenticado."))
		return
	}

	var body archiveBody
	if err := response.Decode(r, &body); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	p, err := h.Service.ArchiveProduct(r.Context(), domain.ArchiveRequest{
		ProductID: r.PathValue("id"),
		Reason:    body.Reason,
		Actor:     claims.UserID,
	})
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, p)
}

// queryInt converte um parâmetro opcional; vazio vira zero.
func queryInt(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationError("Parâmetro '" + name + "' deve ser um número inteiro.")
	}
	return n, nil
}
