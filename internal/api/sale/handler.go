package sale

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
	"gopos/internal/pkg/middleware"
)

// SaleService define o contrato que o Handler espera do motor de vendas.
type SaleService interface {
	SubmitSale(ctx context.Context, principal domain.Principal, cart []domain.CartItem) (domain.Sale, error)
	ListSalesByDate(ctx context.Context, principal domain.Principal, dateStr string) ([]domain.Sale, error)
}

// SubmitSaleRequest é o payload de submissão de venda: o carrinho.
type SubmitSaleRequest struct {
	Items []domain.CartItem `json:"items"`
}

// Handler agrupa todos os métodos de Handler de vendas.
type Handler struct {
	Service SaleService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SaleService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// SalesHandler despacha /v1/sales por método: POST submete uma venda,
// GET consulta as vendas de um dia.
func (h *Handler) SalesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitSale(w, r)
	case http.MethodGet:
		h.listSales(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// submitSale lida com a requisição POST /v1/sales.
// @Summary Submete uma venda
// @Description Valida o carrinho contra o estoque atual e registra a venda atomicamente (cabeçalho, linhas e decrementos de estoque).
// @Tags sales
// @Accept json
// @Produce json
// @Param sale body SubmitSaleRequest true "Carrinho: lista de {product_id, quantity}"
// @Success 201 {object} domain.Sale "Venda registrada"
// @Failure 400 {object} domain.ErrorResponse "Carrinho inválido, produto inexistente ou estoque insuficiente"
// @Failure 401 {object} domain.ErrorResponse "Requisição sem usuário autenticado"
// @Failure 409 {object} domain.ErrorResponse "Conflito de estoque no commit (reavalie o carrinho e tente de novo)"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /sales [post]
func (h *Handler) submitSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// O principal resolvido pelo middleware é passado EXPLICITAMENTE para o
	// motor: se estiver ausente, o serviço rejeita antes de validar o carrinho.
	principal, _ := middleware.GetPrincipalFromContext(ctx)

	var req SubmitSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	sale, err := h.Service.SubmitSale(ctx, principal, req.Items)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, sale, nil, http.StatusCreated)
}

// listSales lida com a requisição GET /v1/sales?date=YYYY-MM-DD.
// @Summary Lista as vendas de um dia
// @Description Retorna as vendas criadas dentro do dia local informado (padrão: hoje), mais recentes primeiro, com linhas e snapshot atual do produto.
// @Tags sales
// @Produce json
// @Param date query string false "Dia no formato YYYY-MM-DD"
// @Success 200 {array} domain.Sale
// @Failure 400 {object} domain.ErrorResponse "Data inválida"
// @Failure 401 {object} domain.ErrorResponse "Requisição sem usuário autenticado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /sales [get]
func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, _ := middleware.GetPrincipalFromContext(ctx)

	dateStr := r.URL.Query().Get("date")

	sales, err := h.Service.ListSalesByDate(ctx, principal, dateStr)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, sales, nil, http.StatusOK)
}
