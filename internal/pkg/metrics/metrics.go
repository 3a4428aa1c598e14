package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Contadores de negócio do motor de vendas, expostos em /metrics.
// O label status distingue os desfechos de uma submissão:
// ok, validation, unauthorized, conflict, error.
var (
	SaleSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gopos",
		Name:      "sale_submissions_total",
		Help:      "Total de submissões de venda por desfecho.",
	}, []string{"status"})

	SaleItemsSold = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gopos",
		Name:      "sale_items_sold_total",
		Help:      "Total de unidades vendidas em vendas commitadas.",
	})
)
