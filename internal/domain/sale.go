package domain

import (
	"time"
)

// CartItem é uma linha do carrinho enviado pelo caixa: produto e quantidade.
// O carrinho é um objeto de valor transiente, nunca persistido como entidade.
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// ResolvedLine é uma linha do carrinho já validada pelo serviço de vendas,
// carregando o preço unitário capturado no momento da leitura de estoque.
// O total da venda é calculado a partir DESTES preços, garantindo por
// construção que total == Σ(preço × quantidade).
type ResolvedLine struct {
	ProductID int64
	Quantity  int
	UnitPrice float64
}

// SaleLine é uma linha persistida de uma venda. O campo Price é o preço
// capturado no momento da venda: alterações posteriores no preço do
// produto não alteram vendas históricas.
type SaleLine struct {
	ID        int64            `json:"id"`
	SaleID    int64            `json:"sale_id"`
	ProductID int64            `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     float64          `json:"price"`
	Product   *SaleLineProduct `json:"product,omitempty"` // snapshot atual, preenchido apenas na consulta
}

// SaleLineProduct é o snapshot do produto no momento da CONSULTA
// (nome/categoria atuais), não um dado histórico.
type SaleLineProduct struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Sale é o registro durável de uma transação concluída. TotalPrice e
// CreatedAt são imutáveis após a criação; a venda nunca é atualizada ou
// removida por este núcleo.
type Sale struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	TotalPrice float64    `json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	Items      []SaleLine `json:"items"`
}

// DayWindow resolve uma data (YYYY-MM-DD, ou vazia = hoje) para a janela
// [00:00:00.000, 23:59:59.999] do dia no fuso local do deployment.
func DayWindow(dateStr string) (time.Time, time.Time, error) {
	base := time.Now()
	if dateStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		base = parsed
	}

	start := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, time.Local)
	end := start.Add(24*time.Hour - time.Millisecond)
	return start, end, nil
}
