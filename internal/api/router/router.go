package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "bookstock/docs"
	"bookstock/internal/api/order"
	"bookstock/internal/api/product"
	"bookstock/internal/api/stock"
	"bookstock/internal/api/supplier"
	"bookstock/internal/api/user"
	"bookstock/internal/domain"
	"bookstock/internal/pkg/cache"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	Product  *product.Handler
	Stock    *stock.Handler
	Order    *order.Handler
	Supplier *supplier.Handler
	User     *user.Handler
}

// Options controla os middlewares globais.
type Options struct {
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, cacheClient cache.Client, log logger.Logger, opts Options) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.PermissionMiddleware(domain.RoleAdmin)(next))
	}

	// --- Health check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- Usuários ---
	mux.HandleFunc("POST /v1/users/register", h.User.RegisterUserHandler)
	mux.HandleFunc("POST /v1/users/login", h.User.LoginUserHandler)

	// --- Produtos ---
	mux.HandleFunc("GET /v1/products", h.Product.ListProductsHandler)
	mux.HandleFunc("POST /v1/products", adminOnly(h.Product.CreateProductHandler))
	mux.HandleFunc("GET /v1/products/low-stock", h.Product.LowStockHandler)
	mux.HandleFunc("GET /v1/products/{id}", h.Product.GetProductHandler)
	mux.HandleFunc("POST /v1/products/{id}/archive", adminOnly(h.Product.ArchiveProductHandler))
	mux.HandleFunc("GET /v1/products/{id}/orders", adminOnly(h.Order.ListProductOrdersHandler))

	// --- Estoque ---
	mux.HandleFunc("POST /v1/products/{id}/stock/reduce", adminOnly(h.Stock.ReduceStockHandler))
	mux.HandleFunc("POST /v1/products/{id}/stock/boost", adminOnly(h.Stock.BoostStockHandler))

	// --- Pedidos ---
	mux.HandleFunc("POST /v1/orders", auth(h.Order.SubmitOrderHandler))
	mux.HandleFunc("GET /v1/orders/{id}", auth(h.Order.GetOrderHandler))

	// --- Fornecedores ---
	mux.HandleFunc("GET /v1/suppliers", h.Supplier.GetAllSuppliersHandler)
	mux.HandleFunc("POST /v1/suppliers", adminOnly(h.Supplier.CreateSupplierHandler))
	mux.HandleFunc("GET /v1/suppliers/{id}", h.Supplier.GetSupplierByIDHandler)
	mux.HandleFunc("PUT /v1/suppliers/{id}", adminOnly(h.Supplier.UpdateSupplierHandler))
	mux.HandleFunc("DELETE /v1/suppliers/{id}", adminOnly(h.Supplier.DeleteSupplierHandler))
	mux.HandleFunc("GET /v1/suppliers/{id}/stats", h.Supplier.SupplierStatsHandler)

	limited := middleware.RateLimiter(cacheClient, log, opts.RateLimitMaxRequests, opts.RateLimitPeriod)(mux)
	return middleware.RequestLogger(log)(limited)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
