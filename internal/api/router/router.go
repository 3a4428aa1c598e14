package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gopos/internal/api/product"
	"gopos/internal/api/report"
	"gopos/internal/api/sale"
	"gopos/internal/api/user"
	"gopos/internal/domain"
	"gopos/internal/pkg/cache"
	"gopos/internal/pkg/middleware"
)

// Config agrupa os parâmetros do roteador que vêm da configuração.
type Config struct {
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	saleHandler *sale.Handler,
	productHandler *product.Handler,
	userHandler *user.Handler,
	reportHandler *report.Handler,
	tokenSvc middleware.TokenService,
	cacheClient cache.Client,
	cfg Config,
) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Rotas públicas ---
	mux.HandleFunc("/ping", PingHandler)
	mux.HandleFunc("/v1/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("/v1/login", userHandler.LoginUserHandler)

	// Observabilidade e documentação
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// --- 2. Rotas do Módulo de Vendas (v1) ---
	// POST /v1/sales (submeter venda) e GET /v1/sales?date= (consulta do dia)
	mux.HandleFunc("/v1/sales", auth(saleHandler.SalesHandler))

	// --- 3. Rotas do Módulo de Produtos (v1) ---
	// A permissão por método (POST/PUT/DELETE = admin) é decidida no handler.
	mux.HandleFunc("/v1/products", auth(productHandler.CollectionHandler))
	mux.HandleFunc("/v1/products/", auth(productHandler.ItemHandler))

	// --- 4. Dashboard administrativo ---
	mux.HandleFunc("/v1/dashboard/today", auth(adminOnly(reportHandler.DailySummaryHandler)))

	// --- 5. Middlewares globais ---
	var handler http.Handler = mux
	handler = middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
