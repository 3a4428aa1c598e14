package saleservice_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
	"gopos/internal/service/saleservice"
)

// MockSaleRepository é uma implementação mock da interface SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) CreateSale(ctx context.Context, userID int64, totalPrice float64, lines []domain.ResolvedLine) (domain.Sale, error) {
	args := m.Called(ctx, userID, totalPrice, lines)
	return args.Get(0).(domain.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]domain.Sale, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]domain.Sale), args.Error(1)
}

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindForSale(ctx context.Context, ids []int64) (map[int64]domain.ProductForSale, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[int64]domain.ProductForSale), args.Error(1)
}

func (m *MockProductRepository) EvictFromCache(ctx context.Context, ids []int64) {
	m.Called(ctx, ids)
}

func newTestService(saleRepo *MockSaleRepository, productRepo *MockProductRepository) *saleservice.Service {
	mockLogger := logger.NewLogger("error")
	return saleservice.NewService(saleRepo, productRepo, mockLogger)
}

var cashier = domain.Principal{UserID: 42, Role: domain.RoleCashier}

// TestSubmitSale_Success testa o cenário básico: estoque 10, pedido de 5.
func TestSubmitSale_Success(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	snapshot := map[int64]domain.ProductForSale{
		1: {ID: 1, Name: "Café 500g", Price: 12.5, Stock: 10},
	}
	mockProductRepo.On("FindForSale", mock.Anything, []int64{1}).Return(snapshot, nil)
	mockProductRepo.On("EvictFromCache", mock.Anything, []int64{1}).Return()

	expectedLines := []domain.ResolvedLine{{ProductID: 1, Quantity: 5, UnitPrice: 12.5}}
	persisted := domain.Sale{
		ID:         7,
		UserID:     cashier.UserID,
		TotalPrice: 62.5,
		CreatedAt:  time.Now(),
		Items:      []domain.SaleLine{{ID: 1, SaleID: 7, ProductID: 1, Quantity: 5, Price: 12.5}},
	}
	mockSaleRepo.On("CreateSale", mock.Anything, cashier.UserID, 62.5, expectedLines).Return(persisted, nil)

	cart := []domain.CartItem{{ProductID: 1, Quantity: 5}}
	sale, err := svc.SubmitSale(context.Background(), cashier, cart)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), sale.ID)
	assert.Equal(t, 62.5, sale.TotalPrice)
	assert.Len(t, sale.Items, 1)
	mockSaleRepo.AssertExpectations(t)
	mockProductRepo.AssertExpectations(t)
}

// TestSubmitSale_Fail_InsufficientStock testa a rejeição quando o pedido
// excede o estoque: estoque 3, pedido de 5. Nenhuma escrita é tentada.
func TestSubmitSale_Fail_InsufficientStock(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	snapshot := map[int64]domain.ProductForSale{
		1: {ID: 1, Name: "Café 500g", Price: 12.5, Stock: 3},
	}
	mockProductRepo.On("FindForSale", mock.Anything, []int64{1}).Return(snapshot, nil)

	cart := []domain.CartItem{{ProductID: 1, Quantity: 5}}
	_, err := svc.SubmitSale(context.Background(), cashier, cart)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "Estoque insuficiente")
	assert.Contains(t, err.Error(), "Café 500g")
	assert.Contains(t, err.Error(), "Estoque: 3")
	assert.Contains(t, err.Error(), "solicitado: 5")
	mockSaleRepo.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestSubmitSale_Fail_EmptyCart testa a rejeição de carrinho vazio antes
// de qualquer acesso ao banco.
func TestSubmitSale_Fail_EmptyCart(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	_, err := svc.SubmitSale(context.Background(), cashier, []domain.CartItem{})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "carrinho")
	mockProductRepo.AssertNotCalled(t, "FindForSale", mock.Anything, mock.Anything)
}

// TestSubmitSale_Fail_NonPositiveQuantity testa quantidade zero e negativa.
func TestSubmitSale_Fail_NonPositiveQuantity(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	for _, quantity := range []int{0, -2} {
		cart := []domain.CartItem{{ProductID: 1, Quantity: quantity}}
		_, err := svc.SubmitSale(context.Background(), cashier, cart)

		assert.Error(t, err)
		assert.IsType(t, &apperror.ValidationError{}, err)
		assert.Contains(t, err.Error(), "maior que zero")
	}
	mockProductRepo.AssertNotCalled(t, "FindForSale", mock.Anything, mock.Anything)
}

// TestSubmitSale_Fail_Unauthenticated testa a rejeição de submissão sem
// principal resolvido, antes de qualquer validação.
func TestSubmitSale_Fail_Unauthenticated(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	cart := []domain.CartItem{{ProductID: 1, Quantity: 1}}
	_, err := svc.SubmitSale(context.Background(), domain.Principal{}, cart)

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	mockProductRepo.AssertNotCalled(t, "FindForSale", mock.Anything, mock.Anything)
	mockSaleRepo.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestSubmitSale_Fail_UnknownProduct testa que um ID inexistente rejeita o
// carrinho INTEIRO, mesmo com outras linhas válidas, sem nenhuma mutação.
func TestSubmitSale_Fail_UnknownProduct(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	// Apenas o produto 1 existe; o 99 não aparece no snapshot.
	snapshot := map[int64]domain.ProductForSale{
		1: {ID: 1, Name: "Café 500g", Price: 12.5, Stock: 10},
	}
	mockProductRepo.On("FindForSale", mock.Anything, []int64{1, 99}).Return(snapshot, nil)

	cart := []domain.CartItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 99, Quantity: 1},
	}
	_, err := svc.SubmitSale(context.Background(), cashier, cart)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "99")
	mockSaleRepo.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestSubmitSale_AggregatesDuplicateRows_Rejected testa a agregação de
// linhas duplicadas: quantidades 3 e 4 contra estoque 6 somam 7 e o
// carrinho é rejeitado, mesmo que cada linha isolada coubesse no estoque.
func TestSubmitSale_AggregatesDuplicateRows_Rejected(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	snapshot := map[int64]domain.ProductForSale{
		1: {ID: 1, Name: "Açúcar 1kg", Price: 5.0, Stock: 6},
	}
	mockProductRepo.On("FindForSale", mock.Anything, []int64{1}).Return(snapshot, nil)

	cart := []domain.CartItem{
		{ProductID: 1, Quantity: 3},
		{ProductID: 1, Quantity: 4},
	}
	_, err := svc.SubmitSale(context.Background(), cashier, cart)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "Estoque: 6")
	assert.Contains(t, err.Error(), "solicitado: 7")
	mockSaleRepo.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestSubmitSale_AggregatesDuplicateRows_Accepted testa o mesmo carrinho
// contra estoque 7: aceito, com as quantidades persistidas somando 7.
func TestSubmitSale_AggregatesDuplicateRows_Accepted(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	snapshot := map[int64]domain.ProductForSale{
		1: {ID: 1, Name: "Açúcar 1kg", Price: 5.0, Stock: 7},
	}
	mockProductRepo.On("FindForSale", mock.Anything, []int64{1}).Return(snapshot, nil)
	mockProductRepo.On("EvictFromCache", mock.Anything, []int64{1}).Return()

	var capturedLines []domain.ResolvedLine
	var capturedTotal float64
	mockSaleRepo.On("CreateSale", mock.Anything, cashier.UserID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			capturedTotal = args.Get(2).(float64)
			capturedLines = args.Get(3).([]domain.ResolvedLine)
		}).
		Return(domain.Sale{ID: 9, UserID: cashier.UserID, TotalPrice: 35.0}, nil)

	cart := []domain.CartItem{
		{ProductID: 1, Quantity: 3},
		{ProductID: 1, Quantity: 4},
	}
	sale, err := svc.SubmitSale(context.Background(), cashier, cart)

	assert.NoError(t, err)
	assert.Equal(t, int64(9), sale.ID)

	// Uma linha por linha do carrinho; a soma das quantidades deve ser 7.
	totalQuantity := 0
	for _, line := range capturedLines {
		totalQuantity += line.Quantity
		assert.Equal(t, 5.0, line.UnitPrice)
	}
	assert.Equal(t, 7, totalQuantity)
	assert.Equal(t, 35.0, capturedTotal) // 7 × 5.0
	mockSaleRepo.AssertExpectations(t)
}

// TestSubmitSale_TotalMatchesCapturedPrices testa que o total enviado ao
// repositório é exatamente Σ(preço capturado × quantidade) das linhas.
func TestSubmitSale_TotalMatchesCapturedPrices(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	snapshot := map[int64]domain.ProductForSale{
		1: {ID: 1, Name: "Café 500g", Price: 12.5, Stock: 10},
		2: {ID: 2, Name: "Filtro de papel", Price: 3.25, Stock: 40},
	}
	mockProductRepo.On("FindForSale", mock.Anything, []int64{1, 2}).Return(snapshot, nil)
	mockProductRepo.On("EvictFromCache", mock.Anything, []int64{1, 2}).Return()

	var capturedLines []domain.ResolvedLine
	var capturedTotal float64
	mockSaleRepo.On("CreateSale", mock.Anything, cashier.UserID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			capturedTotal = args.Get(2).(float64)
			capturedLines = args.Get(3).([]domain.ResolvedLine)
		}).
		Return(domain.Sale{ID: 11, UserID: cashier.UserID}, nil)

	cart := []domain.CartItem{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 4},
	}
	_, err := svc.SubmitSale(context.Background(), cashier, cart)

	assert.NoError(t, err)

	var sum float64
	for _, line := range capturedLines {
		sum += line.UnitPrice * float64(line.Quantity)
	}
	assert.Equal(t, sum, capturedTotal)
	assert.Equal(t, 38.0, capturedTotal) // 2×12.5 + 4×3.25
}

// TestSubmitSale_Fail_StockConflict testa que o conflito de estoque no
// commit (venda concorrente) é propagado como ConflictError retryável.
func TestSubmitSale_Fail_StockConflict(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	snapshot := map[int64]domain.ProductForSale{
		1: {ID: 1, Name: "Café 500g", Price: 12.5, Stock: 5},
	}
	mockProductRepo.On("FindForSale", mock.Anything, []int64{1}).Return(snapshot, nil)

	conflict := apperror.NewConflictError("O estoque do produto 1 foi alterado por outra venda. Tente novamente.")
	mockSaleRepo.On("CreateSale", mock.Anything, cashier.UserID, mock.Anything, mock.Anything).
		Return(domain.Sale{}, conflict)

	cart := []domain.CartItem{{ProductID: 1, Quantity: 5}}
	_, err := svc.SubmitSale(context.Background(), cashier, cart)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	// Cache não é invalidado: a venda não foi commitada.
	mockProductRepo.AssertNotCalled(t, "EvictFromCache", mock.Anything, mock.Anything)
}

// TestSubmitSale_Fail_InternalError testa um erro genérico do repositório.
func TestSubmitSale_Fail_InternalError(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	snapshot := map[int64]domain.ProductForSale{
		1: {ID: 1, Name: "Café 500g", Price: 12.5, Stock: 5},
	}
	mockProductRepo.On("FindForSale", mock.Anything, []int64{1}).Return(snapshot, nil)

	repoError := errors.New("falha de conexão com o DB")
	mockSaleRepo.On("CreateSale", mock.Anything, cashier.UserID, mock.Anything, mock.Anything).
		Return(domain.Sale{}, repoError)

	cart := []domain.CartItem{{ProductID: 1, Quantity: 1}}
	_, err := svc.SubmitSale(context.Background(), cashier, cart)

	assert.Error(t, err)
	assert.NotEqual(t, reflect.TypeOf(&apperror.ValidationError{}), reflect.TypeOf(err))
}

// TestListSalesByDate_Success testa que a consulta usa a janela local
// [00:00:00.000, 23:59:59.999] do dia informado.
func TestListSalesByDate_Success(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	expectedStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	expectedEnd := expectedStart.Add(24*time.Hour - time.Millisecond)

	expectedSales := []domain.Sale{{ID: 3, UserID: 42, TotalPrice: 10}}
	mockSaleRepo.On("FindByDateRange", mock.Anything, expectedStart, expectedEnd).Return(expectedSales, nil)

	sales, err := svc.ListSalesByDate(context.Background(), cashier, "2025-03-10")

	assert.NoError(t, err)
	assert.Equal(t, expectedSales, sales)
	mockSaleRepo.AssertExpectations(t)
}

// TestListSalesByDate_Fail_InvalidDate testa a rejeição de data malformada.
func TestListSalesByDate_Fail_InvalidDate(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	_, err := svc.ListSalesByDate(context.Background(), cashier, "10/03/2025")

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockSaleRepo.AssertNotCalled(t, "FindByDateRange", mock.Anything, mock.Anything, mock.Anything)
}

// TestListSalesByDate_Fail_Unauthenticated testa a consulta sem principal.
func TestListSalesByDate_Fail_Unauthenticated(t *testing.T) {
	mockSaleRepo := new(MockSaleRepository)
	mockProductRepo := new(MockProductRepository)
	svc := newTestService(mockSaleRepo, mockProductRepo)

	_, err := svc.ListSalesByDate(context.Background(), domain.Principal{}, "")

	assert.Error(t, err)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}
