package supplier

import (
	"context"
	"net/http"

	"bookstock/internal/domain"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/pkg/response"
)

// SupplierService define o contrato que o Handler espera da camada de Serviço.
type SupplierService interface {
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error)
	GetSupplierByID(ctx context.Context, id string) (domain.Supplier, error)
	GetAllSuppliers(ctx context.Context) ([]domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error
	SupplierStats(ctx context.Context, id string) (domain.SupplierStats, error)
}

// Handler agrupa todos os métodos de Handler de fornecedor.
type Handler struct {
	Service SupplierService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SupplierService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// SupplierPayload é o corpo aceito na criação e na atualização.
type SupplierPayload struct {
	Name string `json:"name"`
}

// CreateSupplierHandler lida com a requisição POST /v1/suppliers.
// @Summary Cria um novo fornecedor
// @Tags suppliers
// @Accept json
// @Produce json
// @Param supplier body SupplierPayload true "Dados do fornecedor"
// @Success 201 {object} domain.Supplier "Fornecedor criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /suppliers [post]
func (h *Handler) CreateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	var payload SupplierPayload
	if err := response.Decode(r, &payload); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	created, err := h.Service.CreateSupplier(r.Context(), domain.Supplier{Name: payload.Name})
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusCreated, created)
}

// GetSupplierByIDHandler lida com a requisição GET /v1/suppliers/{id}.
// @Summary Obtém um fornecedor por ID
// @Tags suppliers
// @Produce json
// @Param id path string true "ID do fornecedor"
// @Success 200 {object} domain.Supplier "Fornecedor encontrado"
// @Failure 404 {object} domain.ErrorResponse "Fornecedor não encontrado"
// @Router /suppliers/{id} [get]
func (h *Handler) GetSupplierByIDHandler(w http.ResponseWriter, r *http.Request) {
	s, err := h.Service.GetSupplierByID(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, s)
}

// GetAllSuppliersHandler lida com a requisição GET /v1/suppliers.
// @Summary Lista todos os fornecedores
// @Tags suppliers
// @Produce json
// @Success 200 {array} domain.Supplier "Lista de fornecedores"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /suppliers [get]
func (h *Handler) GetAllSuppliersHandler(w http.ResponseWriter, r *http.Request) {
	all, err := h.Service.GetAllSuppliers(r.Context())
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, all)
}

// UpdateSupplierHandler lida com a requisição PUT /v1/suppliers/{id}.
// @Summary Atualiza um fornecedor
// @Tags suppliers
// @Accept json
// @Produce json
// @Param id path string true "ID do fornecedor"
// @Param supplier body SupplierPayload true "Novo nome"
// @Success 200 {object} domain.Supplier "Fornecedor atualizado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "Fornecedor não encontrado"
// @Security ApiKeyAuth
// @Router /suppliers/{id} [put]
func (h *Handler) UpdateSupplierHandler(w http.ResponseWriter, r *http.Request) {
	var payload SupplierPayload
	if err := response.Decode(r, &payload); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}

	updated, err := h.Service.UpdateSupplier(r.Context(), domain.Supplier{ID: r.PathValue("id"), Name: payload.Name})
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, updated)
}

// DeleteSupplierHandler lida com a requisição DELETE /v1/suppliers/{id}.
// @Summary Deleta um fornecedor
// @Description Falha com 409 enquanto houver produtos vinculados.
// @Tags suppliers
// @Param id path string true "ID do fornecedor"
// @Success 204 "Fornecedor deletado"
// @Failure 404 {object} domain.ErrorResponse "Fornecedor não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Fornecedor com produtos vinculados"
// @Security ApiKeyAuth
// @Router /suppliers/{id} [delete]
func (h *Handler) DeleteSupplierHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSupplier(r.Context(), r.PathValue("id")); err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SupplierStatsHandler lida com a requisição GET /v1/suppliers/{id}/stats.
// @Summary Resumo de inventário do fornecedor
// @Tags suppliers
// @Produce json
// @Param id path string true "ID do fornecedor"
// @Success 200 {object} domain.SupplierStats
// @Failure 404 {object} domain.ErrorResponse "Fornecedor não encontrado"
// @Router /suppliers/{id}/stats [get]
func (h *Handler) SupplierStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.SupplierStats(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Error(w, r, h.Logger, err)
		return
	}
	response.JSON(w, h.Logger, http.StatusOK, stats)
}
