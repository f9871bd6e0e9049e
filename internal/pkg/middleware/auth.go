package middleware

import (
	"context"
	"net/http"
	"strings"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/response"
	"bookstock/internal/pkg/token"
)

// ContextKey é não-exportada em valor: só este pacote grava as claims no contexto.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims representa os dados do usuário extraídos do token JWT.
type UserClaims struct {
	UserID string
	Role   domain.UserRole
}

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

const bearerPrefix = "Bearer "

// NewAuthMiddleware valida o JWT do header Authorization e anexa as claims
// (UserID e Role) ao contexto da requisição.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) == len(bearerPrefix) {
				response.Error(w, r, nil, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			claims, err := tokenSvc.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix))
			if err != nil {
				response.Error(w, r, nil, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			ctx := WithUserClaims(r.Context(), UserClaims{
				UserID: claims.UserID,
				Role:   domain.UserRole(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// WithUserClaims anexa as claims ao contexto (usado pelo middleware e por testes de handler).
func WithUserClaims(ctx context.Context, claims UserClaims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// PermissionMiddleware exige que o usuário autenticado tenha um dos papéis informados.
// Deve ser encadeado depois de NewAuthMiddleware.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			for _, required := range requiredRoles {
				if claims.Role == required {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Error(w, r, nil, apperror.NewForbiddenError("Você não tem a permissão necessária."))
		}
	}
}
