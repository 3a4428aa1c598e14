package salerepo

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
)

// SaleRepository executa a unidade de trabalho atômica de venda e as
// consultas de leitura sobre vendas persistidas.
type SaleRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSaleRepository cria e retorna uma nova instância do Repositório de Vendas.
func NewSaleRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *SaleRepository {
	return &SaleRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// CreateSale persiste uma venda completa em uma única transação:
// cabeçalho, linhas com preço capturado e decrementos de estoque.
// Tudo ou nada: qualquer falha desfaz a transação inteira.
//
// O decremento é condicional (stock >= quantidade) e re-valida o invariante
// de estoque não-negativo NO MOMENTO do commit. Se outra venda consumiu o
// estoque entre a validação e o commit, RowsAffected == 0 e a unidade de
// trabalho inteira é abortada com ConflictError (o chamador pode reavaliar
// o carrinho e tentar de novo). Nunca fazemos clamp para zero.
func (r *SaleRepository) CreateSale(ctx context.Context, userID int64, totalPrice float64, lines []domain.ResolvedLine) (domain.Sale, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de venda.", err)
		return domain.Sale{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // no-op após Commit

	// 1. Cabeçalho da venda. O ID vem da sequência do banco, em ordem de criação.
	sale := domain.Sale{
		UserID:     userID,
		TotalPrice: totalPrice,
	}

	const insertSaleSQL = `
		INSERT INTO sales (user_id, total_price, created_at)
		VALUES ($1, $2, now())
		RETURNING id, created_at`

	if err := tx.QueryRowContext(ctxTimeout, insertSaleSQL, userID, totalPrice).Scan(&sale.ID, &sale.CreatedAt); err != nil {
		r.logger.Error("Falha ao inserir cabeçalho da venda.", err)
		return domain.Sale{}, apperror.NewDBError("Falha ao inserir venda", err)
	}

	// 2. Linhas da venda, com o preço unitário capturado na validação.
	const insertItemSQL = `
		INSERT INTO sale_items (sale_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	sale.Items = make([]domain.SaleLine, 0, len(lines))
	for _, line := range lines {
		item := domain.SaleLine{
			SaleID:    sale.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		}
		if err := tx.QueryRowContext(ctxTimeout, insertItemSQL, sale.ID, line.ProductID, line.Quantity, line.UnitPrice).Scan(&item.ID); err != nil {
			r.logger.Error("Falha ao inserir item da venda.", err)
			return domain.Sale{}, apperror.NewDBError("Falha ao inserir item da venda", err)
		}
		sale.Items = append(sale.Items, item)
	}

	// 3. Decremento de estoque, agregado por produto (o mesmo produto pode
	//    aparecer em mais de uma linha do carrinho).
	const decrementSQL = `
		UPDATE products
		SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND stock >= $1`

	for _, agg := range aggregateQuantities(lines) {
		result, err := tx.ExecContext(ctxTimeout, decrementSQL, agg.quantity, agg.productID)
		if err != nil {
			r.logger.Error("Falha ao decrementar estoque.", err)
			return domain.Sale{}, apperror.NewDBError("Falha ao decrementar estoque", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return domain.Sale{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
		}
		if rows == 0 {
			// Estoque mudou entre a validação e o commit (venda concorrente).
			r.logger.Warn("Conflito de estoque no commit da venda.", map[string]interface{}{
				"product_id": agg.productID,
				"requested":  agg.quantity,
			})
			return domain.Sale{}, apperror.NewConflictError(
				fmt.Sprintf("O estoque do produto %d foi alterado por outra venda. Tente novamente.", agg.productID))
		}
	}

	// 4. Commit da unidade de trabalho.
	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de venda.", err)
		return domain.Sale{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Venda registrada com sucesso.", map[string]interface{}{
		"sale_id":     sale.ID,
		"user_id":     userID,
		"total_price": totalPrice,
		"items":       len(sale.Items),
	})
	return sale, nil
}

// FindByDateRange retorna todas as vendas criadas dentro da janela
// [start, end], mais recentes primeiro, com as linhas e o snapshot ATUAL
// do produto referenciado (nome/categoria correntes, não históricos).
func (r *SaleRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT s.id, s.user_id, s.total_price, s.created_at,
		       i.id, i.product_id, i.quantity, i.price,
		       p.name, p.category
		FROM sales s
		JOIN sale_items i ON i.sale_id = s.id
		JOIN products p ON p.id = i.product_id
		WHERE s.created_at >= $1 AND s.created_at <= $2
		ORDER BY s.created_at DESC, s.id DESC, i.id ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query, start, end)
	if err != nil {
		r.logger.Error("Falha ao consultar vendas por período.", err)
		return nil, apperror.NewDBError("Falha ao consultar vendas", err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	var current *domain.Sale
	for rows.Next() {
		var (
			sale domain.Sale
			item domain.SaleLine
			prod domain.SaleLineProduct
		)
		if err := rows.Scan(
			&sale.ID, &sale.UserID, &sale.TotalPrice, &sale.CreatedAt,
			&item.ID, &item.ProductID, &item.Quantity, &item.Price,
			&prod.Name, &prod.Category,
		); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear venda", err)
		}

		item.SaleID = sale.ID
		prod.ID = item.ProductID
		item.Product = &prod

		// Agrupa as linhas da mesma venda (o JOIN produz uma linha por item).
		if current == nil || current.ID != sale.ID {
			sales = append(sales, sale)
			current = &sales[len(sales)-1]
		}
		current.Items = append(current.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar vendas", err)
	}

	return sales, nil
}

// SummarizeRange agrega faturamento e número de transações da janela,
// para o relatório diário.
func (r *SaleRepository) SummarizeRange(ctx context.Context, start, end time.Time) (float64, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT COALESCE(SUM(total_price), 0), COUNT(*)
		FROM sales
		WHERE created_at >= $1 AND created_at <= $2`

	var total float64
	var count int
	if err := r.DB.QueryRowContext(ctxTimeout, query, start, end).Scan(&total, &count); err != nil {
		r.logger.Error("Falha ao agregar vendas do período.", err)
		return 0, 0, apperror.NewDBError("Falha ao agregar vendas", err)
	}

	return total, count, nil
}

// aggregatedQuantity é a quantidade total solicitada de um produto,
// somada entre as linhas do carrinho.
type aggregatedQuantity struct {
	productID int64
	quantity  int
}

// aggregateQuantities soma as quantidades por produto e ordena por ID.
// Transações concorrentes decrementam sempre na mesma ordem, o que evita
// deadlock entre vendas que compartilham produtos.
func aggregateQuantities(lines []domain.ResolvedLine) []aggregatedQuantity {
	byProduct := make(map[int64]int, len(lines))
	for _, line := range lines {
		byProduct[line.ProductID] += line.Quantity
	}

	aggregated := make([]aggregatedQuantity, 0, len(byProduct))
	for productID, quantity := range byProduct {
		aggregated = append(aggregated, aggregatedQuantity{productID: productID, quantity: quantity})
	}
	sort.Slice(aggregated, func(i, j int) bool {
		return aggregated[i].productID < aggregated[j].productID
	})

	return aggregated
}
