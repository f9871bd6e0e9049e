package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int                    `json:"code" example:"409"`
	Category string                 `json:"category" example:"CONFLICT"`
	Message  string                 `json:"message" example:"Estoque insuficiente."`
	Details  map[string]interface{} `json:"details,omitempty"`
}
