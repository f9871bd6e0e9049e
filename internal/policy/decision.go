// Package policy reúne as regras de decisão puras do inventário: validação de
// pedidos, validação de criação de produto, preço efetivo e campos derivados.
// Nenhuma função deste pacote faz I/O.
package policy

import (
	"fmt"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
)

// Outcome é o resultado de uma avaliação.
type Outcome int

const (
	Accept Outcome = iota
	AcceptWithWarnings
	Reject
)

func (o Outcome) String() string {
	switch o {
	case Accept:
		return "accept"
	case AcceptWithWarnings:
		return "accept_with_warnings"
	default:
		return "reject"
	}
}

// Motivos de rejeição.
const (
	ReasonMissingParameters = "missing parameters"
	ReasonProductNotFound   = "product not found"
	ReasonProductArchived   = "product archived"
	ReasonOutOfStock        = "out of stock"
	ReasonInsufficientStock = "insufficient stock"
	ReasonSupplierNotFound  = "supplier not found"
)

// Decision é a saída de uma política: aceite, aceite com avisos ou rejeição com motivo.
type Decision struct {
	Outcome  Outcome
	Reason   string
	Warnings []domain.Warning

	// Preenchidos apenas em ReasonInsufficientStock.
	Available int
	Requested int

	subject string
}

// Rejected informa se a decisão é terminal.
func (d Decision) Rejected() bool { return d.Outcome == Reject }

// Err traduz uma rejeição para a taxonomia de erros da aplicação. Retorna nil se aceito.
func (d Decision) Err() error {
	if !d.Rejected() {
		return nil
	}
	switch d.Reason {
	case ReasonMissingParameters:
		return apperror.NewValidationError(d.Reason)
	case ReasonProductNotFound:
		return apperror.NewNotFoundError(fmt.Sprintf("%s: %s", d.Reason, d.subject))
	case ReasonProductArchived, ReasonOutOfStock:
		return apperror.NewConflictError(fmt.Sprintf("%s: %s", d.Reason, d.subject))
	case ReasonInsufficientStock:
		return apperror.NewInsufficientStockError(d.Reason, d.Available, d.Requested)
	case ReasonSupplierNotFound:
		return apperror.NewIntegrityError(fmt.Sprintf("%s: %s", d.Reason, d.subject))
	default:
		return apperror.NewValidationError(d.Reason)
	}
}

func reject(reason, subject string) Decision {
	return Decision{Outcome: Reject, Reason: reason, subject: subject}
}

func accept(warnings []domain.Warning) Decision {
	if len(warnings) > 0 {
		return Decision{Outcome: AcceptWithWarnings, Warnings: warnings}
	}
	return Decision{Outcome: Accept}
}
