package domain

import (
	"time"
)

// Product representa o item do catálogo vendável no PDV (a Entidade).
// O estoque (Stock) nunca pode ficar negativo após qualquer operação commitada.
type Product struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	Price             float64   `json:"price"`
	Stock             int       `json:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold"` // 0 = alerta desabilitado
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProductForSale é o snapshot consistente de preço e estoque usado na
// validação de uma venda: preço e estoque são lidos na MESMA consulta,
// nunca em duas passadas separadas.
type ProductForSale struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// LowStockProduct é a projeção de produtos abaixo do limiar de reposição,
// consumida pelo relatório diário (dashboard).
type LowStockProduct struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Stock             int    `json:"stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// ProductInput é o payload de criação/atualização de produto.
type ProductInput struct {
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	Price             float64 `json:"price"`
	Stock             int     `json:"stock"`
	LowStockThreshold int     `json:"low_stock_threshold"`
}
