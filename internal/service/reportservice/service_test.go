package reportservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
	"gopos/internal/service/reportservice"
)

// MockSaleRepository é uma implementação mock da interface SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) SummarizeRange(ctx context.Context, start, end time.Time) (float64, int, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindLowStock(ctx context.Context) ([]domain.LowStockProduct, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LowStockProduct), args.Error(1)
}

// TestDailySummary_Success testa o resumo de um dia específico: soma,
// contagem e produtos abaixo do limiar de reposição.
func TestDailySummary_Success(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := reportservice.NewService(mockSaleRepo, mockProductRepo, logger.NewLogger("error"))

	expectedStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	expectedEnd := expectedStart.Add(24*time.Hour - time.Millisecond)

	lowStock := []domain.LowStockProduct{{ID: 2, Name: "Açúcar 1kg", Stock: 1, LowStockThreshold: 3}}
	mockSaleRepo.On("SummarizeRange", mock.Anything, expectedStart, expectedEnd).Return(150.75, 4, nil)
	mockProductRepo.On("FindLowStock", mock.Anything).Return(lowStock, nil)

	summary, err := svc.DailySummary(context.Background(), "2025-03-10")

	assert.NoError(t, err)
	assert.Equal(t, "2025-03-10", summary.Date)
	assert.Equal(t, 150.75, summary.TotalSalesAmount)
	assert.Equal(t, 4, summary.TotalTransactions)
	assert.Len(t, summary.LowStockProducts, 1)
	mockSaleRepo.AssertExpectations(t)
	mockProductRepo.AssertExpectations(t)
}

// TestDailySummary_Fail_InvalidDate testa a rejeição de data malformada.
func TestDailySummary_Fail_InvalidDate(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := reportservice.NewService(mockSaleRepo, mockProductRepo, logger.NewLogger("error"))

	_, err := svc.DailySummary(context.Background(), "março-10")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockSaleRepo.AssertNotCalled(t, "SummarizeRange", mock.Anything, mock.Anything, mock.Anything)
}

// TestDailySummary_EmptyDay testa um dia sem vendas: soma zero e contagem
// zero, não um erro.
func TestDailySummary_EmptyDay(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := reportservice.NewService(mockSaleRepo, mockProductRepo, logger.NewLogger("error"))

	mockSaleRepo.On("SummarizeRange", mock.Anything, mock.Anything, mock.Anything).Return(0.0, 0, nil)
	mockProductRepo.On("FindLowStock", mock.Anything).Return([]domain.LowStockProduct{}, nil)

	summary, err := svc.DailySummary(context.Background(), "2025-03-11")

	assert.NoError(t, err)
	assert.Equal(t, 0.0, summary.TotalSalesAmount)
	assert.Equal(t, 0, summary.TotalTransactions)
	assert.Empty(t, summary.LowStockProducts)
}
