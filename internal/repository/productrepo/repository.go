package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gopos/internal/domain"
	apperror "gopos/internal/errors"
	"gopos/internal/pkg/cache"
	"gopos/internal/pkg/logger"
)

// Chave de cache para produtos individuais.
const productCacheKey = "product:%d"

// ProductRepository é a camada de acesso a dados de produtos.
// Contém as conexões necessárias (PostgreSQL e Redis).
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// Save persiste um novo Produto no banco de dados. O ID é atribuído pelo
// banco (sequência), em ordem de criação.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
		INSERT INTO products (name, category, price, stock, low_stock_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, insertSQL,
		product.Name,
		product.Category,
		product.Price,
		product.Stock,
		product.LowStockThreshold,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)

	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao inserir produto", err)
	}

	r.logger.Info("Produto salvo com sucesso.", map[string]interface{}{"product_id": product.ID, "name": product.Name})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			// Cache HIT
			return product, nil
		}
		// Se a desserialização falhar, continuamos para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): logamos, mas continuamos.
		r.logger.Warn("Falha ao ler produto do cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	const query = `
		SELECT id, name, category, price, stock, low_stock_threshold, created_at, updated_at
		FROM products
		WHERE id = $1`

	err = r.DB.QueryRowContext(ctxTimeout, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Category,
		&product.Price,
		&product.Stock,
		&product.LowStockThreshold,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto", err)
	}

	// 3. Popular o cache para futuras requisições (melhor esforço)
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

// FindAll lista todos os produtos, mais recentes primeiro.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT id, name, category, price, stock, low_stock_threshold, created_at, updated_at
		FROM products
		ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar produtos", err)
	}

	return products, nil
}

// FindForSale retorna o snapshot de venda (nome, preço e estoque atuais)
// para o conjunto de IDs informado, em UMA única consulta. Preço e estoque
// saem do mesmo ponto de leitura: é este snapshot que o validador de
// estoque compara e é este preço que fica capturado na linha da venda.
// IDs inexistentes simplesmente não aparecem no mapa retornado.
func (r *ProductRepository) FindForSale(ctx context.Context, ids []int64) (map[int64]domain.ProductForSale, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT id, name, price, stock
		FROM products
		WHERE id = ANY($1)`

	rows, err := r.DB.QueryContext(ctxTimeout, query, pq.Array(ids))
	if err != nil {
		r.logger.Error("Falha ao buscar snapshot de produtos para venda.", err)
		return nil, apperror.NewDBError("Falha ao buscar produtos para venda", err)
	}
	defer rows.Close()

	snapshot := make(map[int64]domain.ProductForSale, len(ids))
	for rows.Next() {
		var p domain.ProductForSale
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear snapshot de produto", err)
		}
		snapshot[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar snapshot de produtos", err)
	}

	return snapshot, nil
}

// FindLowStock lista os produtos com alerta habilitado (limiar > 0) cujo
// estoque está no limiar ou abaixo, ordenados do menor estoque para o maior.
func (r *ProductRepository) FindLowStock(ctx context.Context) ([]domain.LowStockProduct, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
		SELECT id, name, stock, low_stock_threshold
		FROM products
		WHERE low_stock_threshold > 0 AND stock <= low_stock_threshold
		ORDER BY stock ASC`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao listar produtos com estoque baixo.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos com estoque baixo", err)
	}
	defer rows.Close()

	products := []domain.LowStockProduct{}
	for rows.Next() {
		var p domain.LowStockProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock, &p.LowStockThreshold); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear produto com estoque baixo", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Falha ao iterar produtos com estoque baixo", err)
	}

	return products, nil
}

// Update atualiza os atributos de um produto existente e invalida o cache.
// Este é o único caminho de escrita de estoque fora do registrador de vendas,
// restrito à administração do catálogo.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `
		UPDATE products
		SET name = $1, category = $2, price = $3, stock = $4, low_stock_threshold = $5, updated_at = now()
		WHERE id = $6
		RETURNING created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, updateSQL,
		product.Name,
		product.Category,
		product.Price,
		product.Stock,
		product.LowStockThreshold,
		product.ID,
	).Scan(&product.CreatedAt, &product.UpdatedAt)

	if err == sql.ErrNoRows {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe na base de dados.", product.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao atualizar produto", err)
	}

	r.EvictFromCache(ctxTimeout, []int64{product.ID})
	return product, nil
}

// Delete remove um produto do catálogo e invalida o cache.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao remover produto no DB.", err)
		return apperror.NewDBError("Falha ao remover produto", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rows == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe na base de dados.", id))
	}

	r.EvictFromCache(ctxTimeout, []int64{id})
	return nil
}

// EvictFromCache remove as entradas de cache dos produtos informados.
// Chamado após qualquer escrita que altere produto/estoque (inclusive o
// commit de uma venda). Melhor esforço: falha de cache não invalida a escrita.
func (r *ProductRepository) EvictFromCache(ctx context.Context, ids []int64) {
	for _, id := range ids {
		key := fmt.Sprintf(productCacheKey, id)
		if err := r.Cache.Delete(ctx, key); err != nil {
			r.logger.Warn("Falha ao invalidar cache de produto.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
}
