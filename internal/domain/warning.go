package domain

import "fmt"

// Códigos de aviso (advisory) anexados a respostas de sucesso.
const (
	WarnLargeOrderQuantity   = "large order quantity"
	WarnLowStockAfterOrder   = "low stock after order"
	WarnNoSupplier           = "no supplier"
	WarnLowInitialStock      = "low initial stock"
	WarnMissingPrice         = "missing price"
	WarnCriticalLowStock     = "critical low stock"
	WarnLowThresholdNoResult = "no low stock for low threshold"
)

// Warning é um aviso não bloqueante: nunca impede o aceite da operação.
type Warning struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]int `json:"details,omitempty"`
}

// NewWarning cria um aviso cuja mensagem é o próprio código.
func NewWarning(code string) Warning {
	return Warning{Code: code, Message: code}
}

// NewCountWarning cria um aviso que carrega uma contagem, ex.: "low stock after order, remaining=10".
func NewCountWarning(code, key string, n int) Warning {
	return Warning{
		Code:    code,
		Message: fmt.Sprintf("%s, %s=%d", code, key, n),
		Details: map[string]int{key: n},
	}
}
