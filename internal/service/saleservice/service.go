package saleservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
	"gopos/internal/pkg/metrics"
)

// ProductRepository define o contrato que o motor de vendas espera da
// camada de persistência de produtos: o snapshot consistente de
// preço+estoque e a invalidação de cache após o commit.
type ProductRepository interface {
	FindForSale(ctx context.Context, ids []int64) (map[int64]domain.ProductForSale, error)
	EvictFromCache(ctx context.Context, ids []int64)
}

// SaleRepository define o contrato da unidade de trabalho atômica e da
// consulta de vendas.
type SaleRepository interface {
	CreateSale(ctx context.Context, userID int64, totalPrice float64, lines []domain.ResolvedLine) (domain.Sale, error)
	FindByDateRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error)
}

// Service implementa o motor de transação de venda: validação de estoque,
// captura de preço, registro atômico e consulta por dia.
type Service struct {
	saleRepo    SaleRepository
	productRepo ProductRepository
	logger      logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Vendas.
func NewService(saleRepo SaleRepository, productRepo ProductRepository, log logger.Logger) *Service {
	return &Service{
		saleRepo:    saleRepo,
		productRepo: productRepo,
		logger:      log,
	}
}

// SubmitSale processa a submissão de um carrinho de ponta a ponta:
//
//  1. rejeita requisições sem principal resolvido (antes de qualquer leitura);
//  2. valida a entrada (carrinho não vazio, quantidades positivas);
//  3. lê preço e estoque dos produtos envolvidos em UMA consulta;
//  4. agrega as quantidades por produto e compara o agregado com o estoque;
//  5. delega ao repositório o commit atômico (venda + linhas + decrementos).
//
// A rejeição é sempre do carrinho inteiro: nenhuma aceitação parcial.
// Falha de validação não toca o banco; falha de commit não deixa estado parcial.
func (s *Service) SubmitSale(ctx context.Context, principal domain.Principal, cart []domain.CartItem) (domain.Sale, error) {
	// 1. Autenticação antes de qualquer validação.
	if principal.IsZero() {
		metrics.SaleSubmissions.WithLabelValues("unauthorized").Inc()
		return domain.Sale{}, apperror.NewUnauthorizedError("Submissão de venda requer um usuário autenticado.")
	}

	// 2. Validação de entrada, antes de qualquer acesso ao banco.
	if len(cart) == 0 {
		metrics.SaleSubmissions.WithLabelValues("validation").Inc()
		return domain.Sale{}, apperror.NewValidationError("O carrinho não pode ser vazio.")
	}
	for _, item := range cart {
		if item.Quantity <= 0 {
			metrics.SaleSubmissions.WithLabelValues("validation").Inc()
			return domain.Sale{}, apperror.NewValidationError(
				fmt.Sprintf("A quantidade do produto %d deve ser maior que zero.", item.ProductID))
		}
	}

	// 3. Snapshot consistente de preço e estoque (uma única leitura).
	ids := dedupeProductIDs(cart)
	snapshot, err := s.productRepo.FindForSale(ctx, ids)
	if err != nil {
		metrics.SaleSubmissions.WithLabelValues("error").Inc()
		return domain.Sale{}, err
	}

	// 4. Agregar as quantidades solicitadas por produto: o MESMO produto em
	//    várias linhas do carrinho concorre pelo mesmo estoque, então a soma
	//    é comparada ao disponível, não cada linha isoladamente.
	requested := make(map[int64]int, len(ids))
	for _, item := range cart {
		requested[item.ProductID] += item.Quantity
	}

	for _, id := range ids {
		product, found := snapshot[id]
		if !found {
			metrics.SaleSubmissions.WithLabelValues("validation").Inc()
			return domain.Sale{}, apperror.NewValidationError(
				fmt.Sprintf("Produto com ID %d não encontrado.", id))
		}
		if requested[id] > product.Stock {
			metrics.SaleSubmissions.WithLabelValues("validation").Inc()
			return domain.Sale{}, apperror.NewValidationError(
				fmt.Sprintf("Estoque insuficiente para o produto \"%s\". Estoque: %d, solicitado: %d.",
					product.Name, product.Stock, requested[id]))
		}
	}

	// 5. Resolver as linhas com o preço capturado no snapshot. O total sai
	//    DESTES mesmos preços: total == Σ(preço × quantidade) por construção.
	lines := make([]domain.ResolvedLine, 0, len(cart))
	var totalPrice float64
	var totalUnits int
	for _, item := range cart {
		product := snapshot[item.ProductID]
		lines = append(lines, domain.ResolvedLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
		totalPrice += product.Price * float64(item.Quantity)
		totalUnits += item.Quantity
	}

	// 6. Unidade de trabalho atômica.
	sale, err := s.saleRepo.CreateSale(ctx, principal.UserID, totalPrice, lines)
	if err != nil {
		var conflict *apperror.ConflictError
		if errors.As(err, &conflict) {
			metrics.SaleSubmissions.WithLabelValues("conflict").Inc()
			s.logger.Warn("Venda abortada por conflito de estoque.", map[string]interface{}{"user_id": principal.UserID})
			return domain.Sale{}, err
		}
		metrics.SaleSubmissions.WithLabelValues("error").Inc()
		s.logger.Error("Falha ao registrar venda.", err)
		return domain.Sale{}, err
	}

	// O estoque mudou: invalida o cache dos produtos vendidos (melhor esforço).
	s.productRepo.EvictFromCache(ctx, ids)

	metrics.SaleSubmissions.WithLabelValues("ok").Inc()
	metrics.SaleItemsSold.Add(float64(totalUnits))

	s.logger.Info("Venda submetida com sucesso.", map[string]interface{}{
		"sale_id":     sale.ID,
		"user_id":     principal.UserID,
		"total_price": sale.TotalPrice,
	})
	return sale, nil
}

// ListSalesByDate retorna as vendas do dia informado (YYYY-MM-DD; vazio =
// hoje), mais recentes primeiro, com linhas e snapshot atual do produto.
func (s *Service) ListSalesByDate(ctx context.Context, principal domain.Principal, dateStr string) ([]domain.Sale, error) {
	if principal.IsZero() {
		return nil, apperror.NewUnauthorizedError("Consulta de vendas requer um usuário autenticado.")
	}

	start, end, err := domain.DayWindow(dateStr)
	if err != nil {
		return nil, apperror.NewValidationError(
			fmt.Sprintf("Data inválida '%s'. Use o formato YYYY-MM-DD.", dateStr))
	}

	sales, err := s.saleRepo.FindByDateRange(ctx, start, end)
	if err != nil {
		s.logger.Error("Falha ao consultar vendas por data.", err)
		return nil, err
	}

	return sales, nil
}

// dedupeProductIDs extrai os IDs únicos do carrinho, preservando a ordem
// de primeira ocorrência.
func dedupeProductIDs(cart []domain.CartItem) []int64 {
	seen := make(map[int64]bool, len(cart))
	ids := make([]int64, 0, len(cart))
	for _, item := range cart {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}
	return ids
}
