package productrepo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/cache"
	"bookstock/internal/pkg/database/dbtest"
	"bookstock/internal/pkg/logger"
)

// memCache registra as chaves gravadas e removidas.
type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) GetInt(context.Context, string) (int, error) { return 0, cache.ErrCacheMiss }

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	}
	return nil
}

func (c *memCache) Incr(context.Context, string) (int64, error) { return 0, nil }

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

func newRepo(t *testing.T) (*ProductRepository, *memCache) {
	t.Helper()
	c := newMemCache()
	return NewProductRepository(dbtest.Open(t), c, 5*time.Second, time.Minute, logger.NewNop()), c
}

func newProduct(name string, stock int, price string) domain.Product {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.Product{
		ID:            uuid.NewString(),
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		InStock:       stock > 0,
		Status:        domain.ProductActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func mustCreate(t *testing.T, r *ProductRepository, p domain.Product) domain.Product {
	t.Helper()
	created, err := r.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func TestCreateAndFetch(t *testing.T) {
	r, _ := newRepo(t)
	p := mustCreate(t, r, newProduct("Dom Casmurro", 15, "12.50"))

	got, err := r.Fetch(context.Background(), p.ID)

	require.NoError(t, err)
	assert.Equal(t, "Dom Casmurro", got.Name)
	assert.Equal(t, 15, got.StockQuantity)
	assert.True(t, got.InStock)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Nil(t, got.SupplierID)
	assert.Equal(t, domain.ProductActive, got.Status)
}

func TestFetch_NotFound(t *testing.T) {
	r, _ := newRepo(t)

	_, err := r.Fetch(context.Background(), "nao-existe")

	assert.True(t, apperror.IsNotFound(err))
}

func TestFindByID_PopulatesAndUsesCache(t *testing.T) {
	r, c := newRepo(t)
	p := mustCreate(t, r, newProduct("Iracema", 5, "30"))

	_, err := r.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	_, cached := c.data[cache.ProductKey(p.ID)]
	require.True(t, cached)

	// Uma mudança feita por fora do repositório não aparece enquanto a entrada viver no cache.
	_, err = r.DB.Exec(r.DB.Rebind(`UPDATE products SET name = ? WHERE id = ?`), "Outro", p.ID)
	require.NoError(t, err)

	got, err := r.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Iracema", got.Name)

	fresh, err := r.Fetch(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Outro", fresh.Name)
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("decremento recalcula in_stock e invalida cache", func(t *testing.T) {
		r, c := newRepo(t)
		p := mustCreate(t, r, newProduct("A", 5, "10"))

		affected, err := r.AdjustStock(ctx, p.ID, -5)

		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
		got, _ := r.Fetch(ctx, p.ID)
		assert.Equal(t, 0, got.StockQuantity)
		assert.False(t, got.InStock)
		assert.Contains(t, c.deleted, cache.ProductKey(p.ID))
	})

	t.Run("guarda impede estoque negativo", func(t *testing.T) {
		r, _ := newRepo(t)
		p := mustCreate(t, r, newProduct("B", 3, "10"))

		affected, err := r.AdjustStock(ctx, p.ID, -4)

		require.NoError(t, err)
		assert.Zero(t, affected)
		got, _ := r.Fetch(ctx, p.ID)
		assert.Equal(t, 3, got.StockQuantity)
	})

	t.Run("incremento volta a marcar in_stock", func(t *testing.T) {
		r, _ := newRepo(t)
		p := mustCreate(t, r, newProduct("C", 0, "10"))

		affected, err := r.AdjustStock(ctx, p.ID, 7)

		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)
		got, _ := r.Fetch(ctx, p.ID)
		assert.Equal(t, 7, got.StockQuantity)
		assert.True(t, got.InStock)
	})

	t.Run("produto inexistente não afeta linhas", func(t *testing.T) {
		r, _ := newRepo(t)

		affected, err := r.AdjustStock(ctx, "nao-existe", 1)

		require.NoError(t, err)
		assert.Zero(t, affected)
	})

	t.Run("guarda impede ultrapassar o limite do contador", func(t *testing.T) {
		r, _ := newRepo(t)
		p := mustCreate(t, r, newProduct("D", domain.MaxStockQuantity-1, "10"))

		affected, err := r.AdjustStock(ctx, p.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		affected, err = r.AdjustStock(ctx, p.ID, 1)
		require.NoError(t, err)
		assert.Zero(t, affected)

		got, err := r.Fetch(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.MaxStockQuantity, got.StockQuantity)
	})

	t.Run("delta fora do intervalo é rejeitado sem tocar a linha", func(t *testing.T) {
		r, _ := newRepo(t)
		p := mustCreate(t, r, newProduct("E", 1, "10"))

		for i := 0; i < 2; i++ {
			affected, err := r.AdjustStock(ctx, p.ID, 1<<62)
			_, category, _ := apperror.MapToHTTPStatus(err)
			assert.Equal(t, "VALIDATION_ERROR", category)
			assert.Zero(t, affected)
		}

		got, err := r.Fetch(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.StockQuantity)
	})
}

func TestSetStatus_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)
	p := mustCreate(t, r, newProduct("D", 1, "1"))
	change := domain.StatusChange{Status: domain.ProductArchived, At: time.Now().UTC(), By: "admin-1", Reason: "fora de catálogo"}

	first, err := r.SetStatus(ctx, p.ID, change)
	require.NoError(t, err)
	second, err := r.SetStatus(ctx, p.ID, change)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Zero(t, second)

	got, _ := r.Fetch(ctx, p.ID)
	assert.True(t, got.IsArchived())
	require.NotNil(t, got.ArchivedBy)
	assert.Equal(t, "admin-1", *got.ArchivedBy)
	require.NotNil(t, got.ArchiveReason)
	assert.Equal(t, "fora de catálogo", *got.ArchiveReason)
	assert.NotNil(t, got.ArchivedAt)
}

func TestListLowStock(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)
	mustCreate(t, r, newProduct("muito", 80, "1"))
	mustCreate(t, r, newProduct("pouco", 30, "1"))
	mustCreate(t, r, newProduct("critico", 4, "1"))
	mustCreate(t, r, newProduct("zerado", 0, "1"))

	got, err := r.ListLowStock(ctx, 50)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "critico", got[0].Name)
	assert.Equal(t, "pouco", got[1].Name)
}

func TestList_FiltersAndPaging(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)
	mustCreate(t, r, newProduct("Livro A", 1, "1"))
	mustCreate(t, r, newProduct("Livro B", 1, "1"))
	archived := mustCreate(t, r, newProduct("Livro C", 1, "1"))
	_, err := r.SetStatus(ctx, archived.ID, domain.StatusChange{Status: domain.ProductArchived, At: time.Now().UTC(), By: "x", Reason: "y"})
	require.NoError(t, err)

	active, err := r.List(ctx, domain.ProductFilter{Name: "livro"})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := r.List(ctx, domain.ProductFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page2, err := r.List(ctx, domain.ProductFilter{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Livro B", page2[0].Name)
}

func TestListBySupplier(t *testing.T) {
	ctx := context.Background()
	r, _ := newRepo(t)
	now := time.Now().UTC()
	_, err := r.DB.Exec(r.DB.Rebind(`INSERT INTO suppliers (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`), "s-1", "Editora", now, now)
	require.NoError(t, err)

	supplierID := "s-1"
	withSupplier := newProduct("Com fornecedor", 2, "5")
	withSupplier.SupplierID = &supplierID
	mustCreate(t, r, withSupplier)
	mustCreate(t, r, newProduct("Sem fornecedor", 2, "5"))

	got, err := r.ListBySupplier(ctx, "s-1")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Com fornecedor", got[0].Name)
}

func TestPageBounds(t *testing.T) {
	limit, offset := pageBounds(0, 0)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageBounds(3, 500)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 200, offset)
}
