package productservice

import (
	"context"
	"fmt"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/logger"
)

// ProductRepository define o contrato (interface) que este Serviço espera
// da camada de Persistência (DB, Cache).
type ProductRepository interface {
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id int64) (domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

// Service é a camada de lógica de negócio do catálogo de produtos.
// O estoque escrito por aqui é o de administração do catálogo; o caminho
// de venda decrementa estoque exclusivamente pelo registrador de vendas.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// validateInput aplica as regras comuns de criação/atualização.
func validateInput(input domain.ProductInput) error {
	if input.Name == "" {
		return apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if input.Price < 0 {
		return apperror.NewValidationError("O preço do produto não pode ser negativo.")
	}
	if input.Stock < 0 {
		return apperror.NewValidationError("O estoque inicial não pode ser negativo.")
	}
	if input.LowStockThreshold < 0 {
		return apperror.NewValidationError("O limiar de estoque baixo não pode ser negativo.")
	}
	return nil
}

// CreateProduct cria um novo produto no catálogo.
func (s *Service) CreateProduct(ctx context.Context, input domain.ProductInput) (domain.Product, error) {
	if err := validateInput(input); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		Name:              input.Name,
		Category:          input.Category,
		Price:             input.Price,
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
	}

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("falha ao salvar produto no repositório: %w", err)
	}

	s.logger.Info("Produto criado.", map[string]interface{}{"product_id": created.ID, "name": created.Name})
	return created, nil
}

// GetProductByID busca um produto pelo ID.
func (s *Service) GetProductByID(ctx context.Context, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um inteiro positivo.")
	}

	return s.repo.FindByID(ctx, id)
}

// ListProducts lista o catálogo completo, mais recentes primeiro.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.FindAll(ctx)
}

// UpdateProduct atualiza os atributos de um produto existente.
func (s *Service) UpdateProduct(ctx context.Context, id int64, input domain.ProductInput) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um inteiro positivo.")
	}
	if err := validateInput(input); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		ID:                id,
		Name:              input.Name,
		Category:          input.Category,
		Price:             input.Price,
		Stock:             input.Stock,
		LowStockThreshold: input.LowStockThreshold,
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("Produto atualizado.", map[string]interface{}{"product_id": updated.ID})
	return updated, nil
}

// DeleteProduct remove um produto do catálogo.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.NewValidationError("O ID do produto deve ser um inteiro positivo.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Produto removido.", map[string]interface{}{"product_id": id})
	return nil
}
