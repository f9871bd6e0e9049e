package productservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/lock"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	if fn, ok := args.Get(0).(func(context.Context, domain.Product) domain.Product); ok {
		return fn(ctx, p), args.Error(1)
	}
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Fetch(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) SetStatus(ctx context.Context, id string, change domain.StatusChange) (int64, error) {
	args := m.Called(ctx, id, change)
	return args.Get(0).(int64), args.Error(1)
}

type MockSupplierReader struct {
	mock.Mock
}

func (m *MockSupplierReader) GetSupplierByID(ctx context.Context, id string) (domain.Supplier, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Supplier), args.Error(1)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) Emit(name, aggregateID string, payload interface{}) {
	m.Called(name, aggregateID, payload)
}

type fixture struct {
	repo      *MockProductRepository
	suppliers *MockSupplierReader
	events    *MockEmitter
	svc       *productservice.Service
}

func newFixture() fixture {
	f := fixture{
		repo:      new(MockProductRepository),
		suppliers: new(MockSupplierReader),
		events:    new(MockEmitter),
	}
	f.svc = productservice.NewService(f.repo, f.suppliers, lock.NewKeyed(time.Second), f.events, 20, logger.NewNop())
	return f
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func warningCodes(ws []domain.Warning) []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// TestCreateProduct_WithSupplierNoWarnings testa a criação completa, sem avisos.
func TestCreateProduct_WithSupplierNoWarnings(t *testing.T) {
	f := newFixture()
	f.suppliers.On("GetSupplierByID", mock.Anything, "s-1").Return(domain.Supplier{ID: "s-1", Name: "Editora"}, nil)
	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.Name == "O Cortiço" && p.SupplierID != nil && *p.SupplierID == "s-1" && p.InStock && p.Status == domain.ProductActive
	})).Return(domain.Product{ID: "p-1", Name: "O Cortiço", Price: decimal.RequireFromString("40"), StockQuantity: 30, InStock: true}, nil)

	res, err := f.svc.CreateProduct(context.Background(), domain.CreateProductRequest{
		Name: "  O Cortiço ", Price: price("40"), StockQuantity: 30, SupplierID: "s-1",
	})

	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "p-1", res.Product.ID)
	require.NotNil(t, res.Product.InventoryValue)
	assert.True(t, res.Product.InventoryValue.Equal(decimal.NewFromInt(1200)))
	f.repo.AssertExpectations(t)
}

// TestCreateProduct_WarningsNeverBlock cobre os três avisos da política de criação.
func TestCreateProduct_WarningsNeverBlock(t *testing.T) {
	f := newFixture()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("domain.Product")).Return(
		func(_ context.Context, p domain.Product) domain.Product { return p }, nil)

	res, err := f.svc.CreateProduct(context.Background(), domain.CreateProductRequest{Name: "Sem nada", StockQuantity: 3})

	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{domain.WarnNoSupplier, domain.WarnLowInitialStock, domain.WarnMissingPrice},
		warningCodes(res.Warnings))
	assert.True(t, res.Product.Price.IsZero())
	f.suppliers.AssertNotCalled(t, "GetSupplierByID", mock.Anything, mock.Anything)
}

func TestCreateProduct_UnknownSupplierIsIntegrityError(t *testing.T) {
	f := newFixture()
	f.suppliers.On("GetSupplierByID", mock.Anything, "fantasma").Return(domain.Supplier{}, apperror.NewNotFoundError("fantasma"))

	_, err := f.svc.CreateProduct(context.Background(), domain.CreateProductRequest{Name: "X", Price: price("10"), StockQuantity: 50, SupplierID: "fantasma"})

	_, category, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, "INTEGRITY_ERROR", category)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_BoundaryValidation(t *testing.T) {
	for name, req := range map[string]domain.CreateProductRequest{
		"sem nome":                {Name: " ", StockQuantity: 1},
		"preço negativo":          {Name: "A", Price: price("-1")},
		"estoque negativo":        {Name: "A", StockQuantity: -2},
		"estoque acima do limite": {Name: "A", StockQuantity: domain.MaxStockQuantity + 1},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			_, err := f.svc.CreateProduct(context.Background(), req)

			_, category, _ := apperror.MapToHTTPStatus(err)
			assert.Equal(t, "VALIDATION_ERROR", category)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateProduct_SupplierLookupFailure(t *testing.T) {
	f := newFixture()
	f.suppliers.On("GetSupplierByID", mock.Anything, "s-1").Return(domain.Supplier{}, apperror.NewDBError("select", errors.New("timeout")))

	_, err := f.svc.CreateProduct(context.Background(), domain.CreateProductRequest{Name: "A", SupplierID: "s-1"})

	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, 500, status)
}

func TestGetProduct_DerivedFields(t *testing.T) {
	f := newFixture()
	f.repo.On("FindByID", mock.Anything, "p-1").Return(domain.Product{
		ID: "p-1", Category: "EDU", Price: decimal.RequireFromString("50"), StockQuantity: 120, InStock: true,
	}, nil)

	view, err := f.svc.GetProduct(context.Background(), "p-1")

	require.NoError(t, err)
	assert.Equal(t, "11% discount", view.Promotion)
	assert.True(t, view.EffectivePrice.Equal(decimal.NewFromInt(40)))
	assert.False(t, view.LowStock)
}

func TestListProducts(t *testing.T) {
	f := newFixture()
	filter := domain.ProductFilter{Page: 1, Limit: 10, Name: "livro"}
	f.repo.On("List", mock.Anything, filter).Return([]domain.Product{
		{ID: uuid.NewString(), Name: "Livro A", StockQuantity: 5},
		{ID: uuid.NewString(), Name: "Livro B", StockQuantity: 50},
	}, nil)

	views, err := f.svc.ListProducts(context.Background(), filter)

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.True(t, views[0].LowStock)
	assert.False(t, views[1].LowStock)
	f.repo.AssertExpectations(t)
}

func TestLowStockProducts(t *testing.T) {
	t.Run("limite padrão e itens críticos", func(t *testing.T) {
		f := newFixture()
		f.repo.On("ListLowStock", mock.Anything, domain.DefaultLowStockThreshold).Return([]domain.Product{
			{ID: "a", StockQuantity: 2, InStock: true},
			{ID: "b", StockQuantity: 9, InStock: true},
			{ID: "c", StockQuantity: 30, InStock: true},
		}, nil)

		list, err := f.svc.LowStockProducts(context.Background(), 0)

		require.NoError(t, err)
		assert.Len(t, list.Products, 3)
		require.Len(t, list.Warnings, 1)
		assert.Equal(t, "critical low stock, count=2", list.Warnings[0].Message)
	})

	t.Run("limite baixo sem resultado", func(t *testing.T) {
		f := newFixture()
		f.repo.On("ListLowStock", mock.Anything, 5).Return([]domain.Product{}, nil)

		list, err := f.svc.LowStockProducts(context.Background(), 5)

		require.NoError(t, err)
		assert.Empty(t, list.Products)
		assert.Equal(t, []string{domain.WarnLowThresholdNoResult}, warningCodes(list.Warnings))
	})

	t.Run("limite negativo", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.LowStockProducts(context.Background(), -1)
		_, category, _ := apperror.MapToHTTPStatus(err)
		assert.Equal(t, "VALIDATION_ERROR", category)
	})
}

func TestArchiveProduct_Success(t *testing.T) {
	f := newFixture()
	f.repo.On("Fetch", mock.Anything, "p-1").Return(domain.Product{ID: "p-1", Status: domain.ProductActive}, nil)
	f.repo.On("SetStatus", mock.Anything, "p-1", mock.MatchedBy(func(c domain.StatusChange) bool {
		return c.Status == domain.ProductArchived && c.By == "admin-1" && c.Reason == "edição esgotada" && !c.At.IsZero()
	})).Return(int64(1), nil)
	f.events.On("Emit", domain.EventProductArchived, "p-1", mock.AnythingOfType("domain.ProductArchivedEvent")).Return()

	view, err := f.svc.ArchiveProduct(context.Background(), domain.ArchiveRequest{ProductID: "p-1", Reason: "edição esgotada", Actor: "admin-1"})

	require.NoError(t, err)
	assert.True(t, view.IsArchived())
	require.NotNil(t, view.ArchivedBy)
	assert.Equal(t, "admin-1", *view.ArchivedBy)
	f.events.AssertExpectations(t)
}

// TestArchiveProduct_AlreadyArchived: conflito independente do motivo informado.
func TestArchiveProduct_AlreadyArchived(t *testing.T) {
	for _, reason := range []string{"outro motivo", "edição esgotada", "x"} {
		f := newFixture()
		f.repo.On("Fetch", mock.Anything, "p-1").Return(domain.Product{ID: "p-1", Status: domain.ProductArchived}, nil)

		_, err := f.svc.ArchiveProduct(context.Background(), domain.ArchiveRequest{ProductID: "p-1", Reason: reason, Actor: "a"})

		assert.True(t, apperror.IsConflict(err))
		f.repo.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
		f.events.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestArchiveProduct_ConcurrentSecondLoses(t *testing.T) {
	f := newFixture()
	f.repo.On("Fetch", mock.Anything, "p-1").Return(domain.Product{ID: "p-1", Status: domain.ProductActive}, nil)
	f.repo.On("SetStatus", mock.Anything, "p-1", mock.Anything).Return(int64(0), nil)

	_, err := f.svc.ArchiveProduct(context.Background(), domain.ArchiveRequest{ProductID: "p-1", Reason: "r", Actor: "a"})

	assert.True(t, apperror.IsConflict(err))
}

func TestArchiveProduct_Validation(t *testing.T) {
	f := newFixture()

	for _, req := range []domain.ArchiveRequest{{ProductID: "p-1"}, {Reason: "r"}, {ProductID: "p-1", Reason: "   "}} {
		_, err := f.svc.ArchiveProduct(context.Background(), req)
		_, category, _ := apperror.MapToHTTPStatus(err)
		assert.Equal(t, "VALIDATION_ERROR", category)
	}
}

func TestArchiveProduct_NotFound(t *testing.T) {
	f := newFixture()
	f.repo.On("Fetch", mock.Anything, "nao-existe").Return(domain.Product{}, apperror.NewNotFoundError("nao-existe"))

	_, err := f.svc.ArchiveProduct(context.Background(), domain.ArchiveRequest{ProductID: "nao-existe", Reason: "r"})

	assert.True(t, apperror.IsNotFound(err))
}
