package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do bookstock.
// Ela permite que o Handler acesse a Categoria, o status HTTP e os detalhes do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes
}

// --- Erros de cliente (nenhuma mudança de estado) ---

// ValidationError representa entrada ausente ou inválida.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso referenciado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound }
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito de regra de negócio
// (estoque insuficiente, produto já arquivado, OCC).
type ConflictError struct {
	Msg     string
	Details map[string]interface{}
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict }
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// NewInsufficientStockError cria o conflito de estoque insuficiente com as contagens envolvidas.
func NewInsufficientStockError(msg string, available, requested int) AppError {
	return &ConflictError{
		Msg:     msg,
		Details: map[string]interface{}{"available": available, "requested": requested},
	}
}

// IntegrityError representa uma referência ausente no momento da criação
// (ex.: fornecedor informado que não existe).
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string    { return fmt.Sprintf("Erro de Integridade: %s", e.Msg) }
func (e *IntegrityError) Category() string { return "INTEGRITY_ERROR" }
func (e *IntegrityError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *IntegrityError) Unwrap() error    { return nil }

// NewIntegrityError cria um novo erro de integridade referencial.
func NewIntegrityError(msg string) AppError {
	return &IntegrityError{Msg: msg}
}

// UnauthorizedError representa ausência de credenciais válidas.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized }
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa um usuário autenticado sem o papel necessário.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden }
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um novo erro de autorização.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// --- Erros de Infraestrutura (Encapsulamento) ---

// TimeoutError indica que a seção crítica do produto não foi obtida dentro do prazo.
// A operação falha sem alterar estado; o cliente pode tentar novamente.
type TimeoutError struct {
	Msg string
	Err error
}

func (e *TimeoutError) Error() string    { return fmt.Sprintf("Tempo esgotado: %s", e.Msg) }
func (e *TimeoutError) Category() string { return "TIMEOUT" }
func (e *TimeoutError) HTTPStatus() int  { return http.StatusServiceUnavailable }
func (e *TimeoutError) Unwrap() error    { return e.Err }

// NewTimeoutError cria um erro de tempo esgotado.
func NewTimeoutError(msg string, err error) AppError {
	return &TimeoutError{Msg: msg, Err: err}
}

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helpers de inspeção ---

// IsNotFound informa se algum erro da cadeia é um NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}

// IsConflict informa se algum erro da cadeia é um ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return stderrors.As(err, &c)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus traduz um erro para status HTTP, categoria e mensagem.
// Erros encapsulados com %w mantêm sua categoria original.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		if appErr.HTTPStatus() == http.StatusInternalServerError {
			// Não vaza detalhes de infraestrutura para o cliente.
			return appErr.HTTPStatus(), appErr.Category(), "Ocorreu um erro inesperado."
		}
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}

// DetailsOf devolve os detalhes estruturados do erro, quando houver.
func DetailsOf(err error) map[string]interface{} {
	var c *ConflictError
	if stderrors.As(err, &c) {
		return c.Details
	}
	return nil
}
