package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
)

// ReportService define o contrato que o Handler espera do serviço de relatórios.
type ReportService interface {
	DailySummary(ctx context.Context, dateStr string) (domain.DailySummary, error)
}

// Handler agrupa os métodos de Handler do dashboard.
type Handler struct {
	Service ReportService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ReportService, log logger.Logger) *Handler {
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
			json.NewEncoder(w).Encode(data)
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
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

// DailySummaryHandler lida com GET /v1/dashboard/today?date=YYYY-MM-DD.
// @Summary Resumo diário de vendas
// @Description Faturamento, número de transações do dia e produtos no limiar de reposição. Somente administradores.
// @Tags dashboard
// @Produce json
// @Param date query string false "Dia no formato YYYY-MM-DD"
// @Success 200 {object} domain.DailySummary
// @Failure 400 {object} domain.ErrorResponse "Data inválida"
// @Failure 403 {object} domain.ErrorResponse "Requer role admin"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /dashboard/today [get]
func (h *Handler) DailySummaryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	dateStr := r.URL.Query().Get("date")

	summary, err := h.Service.DailySummary(r.Context(), dateStr)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, summary, nil, http.StatusOK)
}
