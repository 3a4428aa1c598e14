package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
	"gopos/internal/pkg/middleware"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, input domain.ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
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

// requireAdmin verifica se o principal da requisição tem a role admin.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	principal, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return false
	}
	if principal.Role != domain.RoleAdmin {
		h.handleServiceResponse(w, r, nil, apperror.NewForbiddenError("Somente administradores podem gerenciar o catálogo."), http.StatusOK)
		return false
	}
	return true
}

// CollectionHandler despacha /v1/products por método: GET lista o catálogo
// (qualquer usuário autenticado), POST cria um produto (somente admin).
func (h *Handler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listProducts(w, r)
	case http.MethodPost:
		if !h.requireAdmin(w, r) {
			return
		}
		h.createProduct(w, r)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// ItemHandler despacha /v1/products/{id}: GET busca (autenticado),
// PUT atualiza e DELETE remove (somente admin).
func (h *Handler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r.URL.Path)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("ID de produto inválido na URL."), http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, id)
	case http.MethodPut:
		if !h.requireAdmin(w, r) {
			return
		}
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		if !h.requireAdmin(w, r) {
			return
		}
		h.handleDelete(w, r, id)
	default:
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
	}
}

// listProducts lida com GET /v1/products.
// @Summary Lista os produtos do catálogo
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product
// @Failure 500 {object} domain.ErrorResponse
// @Router /products [get]
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context())
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, products, nil, http.StatusOK)
}

// createProduct lida com POST /v1/products (admin).
// @Summary Cria um produto
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.ProductInput true "Dados do produto"
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Router /products [post]
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input domain.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	created, err := h.Service.CreateProduct(r.Context(), input)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, created, nil, http.StatusCreated)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, id int64) {
	product, err := h.Service.GetProductByID(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, product, nil, http.StatusOK)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id int64) {
	var input domain.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	updated, err := h.Service.UpdateProduct(r.Context(), id, input)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	h.handleServiceResponse(w, r, updated, nil, http.StatusOK)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.Service.DeleteProduct(r.Context(), id); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
		return
	}
	h.handleServiceResponse(w, r, nil, nil, http.StatusNoContent)
}

// extractID obtém o ID numérico do último segmento da URL /v1/products/{id}.
func extractID(path string) (int64, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) != 3 {
		return 0, fmt.Errorf("formato de URL inválido: %s", path)
	}
	return strconv.ParseInt(segments[2], 10, 64)
}
