package middleware

import (
	"encoding/json"
	"net/http"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
)

// writeError envia o mesmo envelope JSON de erro que os handlers usam, para
// que o cliente receba um único formato em toda a superfície da API, mesmo
// quando a requisição é barrada antes de chegar a um handler.
func writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}
