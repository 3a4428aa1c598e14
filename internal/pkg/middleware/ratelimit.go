package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	apperror "gopos/internal/errors"
	"gopos/internal/pkg/cache"
)

// RateLimiter limita o número de requisições por IP dentro de uma janela,
// usando um contador no Redis compartilhado entre instâncias.
//
// O contador é incrementado ANTES da checagem e a decisão usa o valor
// retornado pelo INCR: duas requisições concorrentes nunca leem o mesmo
// contador antes de incrementar, então o limite não pode ser ultrapassado
// por uma corrida entre leitura e escrita.
func RateLimiter(client cache.Client, limit int, duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				// RemoteAddr sem porta (e.g., atrás de um proxy).
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip
			ctx := r.Context()

			count, err := client.Incr(ctx, key)
			if err != nil {
				writeError(w, apperror.NewInternalError("Falha ao consultar o limite de requisições.", err))
				return
			}

			// Primeira requisição da janela: o contador acabou de nascer e
			// ganha o tempo de vida da janela.
			if count == 1 {
				client.Expire(ctx, key, duration)
			}

			if count > int64(limit) {
				writeError(w, apperror.NewTooManyRequestsError("Limite de requisições excedido. Tente novamente em instantes."))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-int(count)))
			next.ServeHTTP(w, r)
		})
	}
}
