// Package response padroniza as respostas JSON dos handlers e middlewares.
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
)

// JSON escreve o corpo com o status informado. data nil gera corpo vazio.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil && log != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Error traduz o erro de serviço para o corpo padrão de erro.
// 5xx são registrados como erro; 4xx apenas em debug.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if log != nil {
		if status >= http.StatusInternalServerError {
			log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
		} else {
			log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			})
		}
	}

	JSON(w, log, status, domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
		Details:  apperror.DetailsOf(err),
	})
}

// Decode lê o corpo JSON da requisição. Campos desconhecidos são rejeitados.
func Decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return nil
}
