package reportservice

import (
	"context"
	"fmt"
	"time"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
)

// SaleRepository é o contrato de agregação de vendas que o relatório consome.
type SaleRepository interface {
	SummarizeRange(ctx context.Context, start, end time.Time) (float64, int, error)
}

// ProductRepository é o contrato de leitura de produtos abaixo do limiar.
type ProductRepository interface {
	FindLowStock(ctx context.Context) ([]domain.LowStockProduct, error)
}

// Service monta o resumo diário consumido pelo dashboard administrativo.
// Leitura pura: nenhum invariante além de refletir o estado persistido.
type Service struct {
	saleRepo    SaleRepository
	productRepo ProductRepository
	logger      logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Relatórios.
func NewService(saleRepo SaleRepository, productRepo ProductRepository, log logger.Logger) *Service {
	return &Service{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		logger:      log,
	}
}

// DailySummary agrega o faturamento e o número de transações do dia
// (YYYY-MM-DD; vazio = hoje) e anexa os produtos com estoque no limiar
// de reposição ou abaixo dele.
func (s *Service) DailySummary(ctx context.Context, dateStr string) (domain.DailySummary, error) {
	start, end, err := domain.DayWindow(dateStr)
	if err != nil {
		return domain.DailySummary{}, apperror.NewValidationError(
			fmt.Sprintf("Data inválida '%s'. Use o formato YYYY-MM-DD.", dateStr))
	}

	totalAmount, totalTransactions, err := s.saleRepo.SummarizeRange(ctx, start, end)
	if err != nil {
		s.logger.Error("Falha ao agregar vendas do dia.", err)
		return domain.DailySummary{}, err
	}

	lowStock, err := s.productRepo.FindLowStock(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar produtos com estoque baixo.", err)
		return domain.DailySummary{}, err
	}

	return domain.DailySummary{
		Date:              start.Format("2006-01-02"),
		TotalSalesAmount:  totalAmount,
		TotalTransactions: totalTransactions,
		LowStockProducts:  lowStock,
	}, nil
}
