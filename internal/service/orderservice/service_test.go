package orderservice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/lock"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/service/orderservice"
)

type MockProductReader struct {
	mock.Mock
}

func (m *MockProductReader) Fetch(ctx context.Context, id string) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	args := m.Called(ctx, order)
	if fn, ok := args.Get(0).(func(context.Context, domain.Order) domain.Order); ok {
		return fn(ctx, order), args.Error(1)
	}
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Order, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.Order), args.Error(1)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []domain.StockChanged
}

func (e *recordingEmitter) Emit(name, aggregateID string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sc, ok := payload.(domain.StockChanged); ok {
		e.events = append(e.events, sc)
	}
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

func newService(products orderservice.ProductReader, orders orderservice.OrderRepository, emitter *recordingEmitter) *orderservice.Service {
	return orderservice.NewService(products, orders, lock.NewKeyed(time.Second), emitter, noop.NewTracerProvider(), logger.NewNop())
}

func product(id string, stock int) domain.Product {
	return domain.Product{ID: id, Name: "Livro " + id, StockQuantity: stock, InStock: stock > 0, Status: domain.ProductActive}
}

func TestSubmit_InsufficientStock(t *testing.T) {
	products := new(MockProductReader)
	orders := new(MockOrderRepository)
	emitter := &recordingEmitter{}
	svc := newService(products, orders, emitter)

	products.On("Fetch", mock.Anything, "1").Return(product("1", 15), nil)

	_, err := svc.Submit(context.Background(), domain.OrderRequest{ProductID: "1", Quantity: 20})

	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, map[string]interface{}{"available": 15, "requested": 20}, apperror.DetailsOf(err))
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Zero(t, emitter.count())
}

func TestSubmit_AcceptWithLowStockWarning(t *testing.T) {
	products := new(MockProductReader)
	orders := new(MockOrderRepository)
	emitter := &recordingEmitter{}
	svc := newService(products, orders, emitter)

	products.On("Fetch", mock.Anything, "2").Return(product("2", 50), nil)
	orders.On("Create", mock.Anything, mock.MatchedBy(func(o domain.Order) bool {
		return o.ProductID == "2" && o.Quantity == 40 && o.State == domain.OrderCommitted && o.CreatedBy == "u-1"
	})).Return(func(_ context.Context, o domain.Order) domain.Order { return o }, nil)

	res, err := svc.Submit(context.Background(), domain.OrderRequest{ProductID: "2", Quantity: 40, Actor: "u-1"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Order.ID)
	assert.Equal(t, domain.OrderCommitted, res.Order.State)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "low stock after order, remaining=10", res.Warnings[0].Message)

	require.Equal(t, 1, emitter.count())
	assert.Equal(t, -40, emitter.events[0].Delta)
	assert.Equal(t, 10, emitter.events[0].Remaining)
	assert.Equal(t, res.Order.ID, emitter.events[0].OrderID)
	orders.AssertExpectations(t)
}

func TestSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		req      domain.OrderRequest
		setup    func(p *MockProductReader)
		category string
	}{
		{
			name:     "quantidade zero",
			req:      domain.OrderRequest{ProductID: "1", Quantity: 0},
			setup:    func(p *MockProductReader) {},
			category: "VALIDATION_ERROR",
		},
		{
			name:     "produto ausente no payload",
			req:      domain.OrderRequest{Quantity: 3},
			setup:    func(p *MockProductReader) {},
			category: "VALIDATION_ERROR",
		},
		{
			name: "produto inexistente",
			req:  domain.OrderRequest{ProductID: "9", Quantity: 1},
			setup: func(p *MockProductReader) {
				p.On("Fetch", mock.Anything, "9").Return(domain.Product{}, apperror.NewNotFoundError("9"))
			},
			category: "NOT_FOUND",
		},
		{
			name: "fora de estoque",
			req:  domain.OrderRequest{ProductID: "3", Quantity: 1},
			setup: func(p *MockProductReader) {
				out := product("3", 5)
				out.InStock = false
				p.On("Fetch", mock.Anything, "3").Return(out, nil)
			},
			category: "CONFLICT",
		},
		{
			name: "produto arquivado",
			req:  domain.OrderRequest{ProductID: "4", Quantity: 1},
			setup: func(p *MockProductReader) {
				archived := product("4", 30)
				archived.Status = domain.ProductArchived
				p.On("Fetch", mock.Anything, "4").Return(archived, nil)
			},
			category: "CONFLICT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(MockProductReader)
			orders := new(MockOrderRepository)
			emitter := &recordingEmitter{}
			tt.setup(products)

			_, err := newService(products, orders, emitter).Submit(context.Background(), tt.req)

			_, category, _ := apperror.MapToHTTPStatus(err)
			assert.Equal(t, tt.category, category)
			orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Zero(t, emitter.count())
			products.AssertExpectations(t)
		})
	}
}

func TestSubmit_RepositoryFailureDoesNotEmit(t *testing.T) {
	products := new(MockProductReader)
	orders := new(MockOrderRepository)
	emitter := &recordingEmitter{}
	svc := newService(products, orders, emitter)

	products.On("Fetch", mock.Anything, "1").Return(product("1", 10), nil)
	orders.On("Create", mock.Anything, mock.Anything).Return(domain.Order{}, apperror.NewDBError("insert", errors.New("conexão perdida")))

	_, err := svc.Submit(context.Background(), domain.OrderRequest{ProductID: "1", Quantity: 2})

	status, _, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, 500, status)
	assert.Zero(t, emitter.count())
}

func TestSubmit_LockTimeout(t *testing.T) {
	products := new(MockProductReader)
	orders := new(MockOrderRepository)
	locks := lock.NewKeyed(20 * time.Millisecond)
	svc := orderservice.NewService(products, orders, locks, &recordingEmitter{}, noop.NewTracerProvider(), logger.NewNop())

	release, err := locks.Acquire(context.Background(), "1")
	require.NoError(t, err)
	defer release()

	_, err = svc.Submit(context.Background(), domain.OrderRequest{ProductID: "1", Quantity: 1})

	status, category, _ := apperror.MapToHTTPStatus(err)
	assert.Equal(t, 503, status)
	assert.Equal(t, "TIMEOUT", category)
	products.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

// memLedger guarda o estoque em memória e decrementa sem nenhuma guarda própria:
// qualquer venda acima do estoque só pode vir de uma falha da seção crítica.
type memLedger struct {
	mu     sync.Mutex
	stock  map[string]int
	orders map[string]domain.Order
}

func newMemLedger(stock map[string]int) *memLedger {
	return &memLedger{stock: stock, orders: map[string]domain.Order{}}
}

func (l *memLedger) Fetch(_ context.Context, id string) (domain.Product, error) {
	l.mu.Lock()
	qty, ok := l.stock[id]
	l.mu.Unlock()
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(id)
	}
	// Alarga a janela entre leitura e escrita para expor corridas.
	time.Sleep(time.Millisecond)
	return product(id, qty), nil
}

func (l *memLedger) Create(_ context.Context, o domain.Order) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[o.ProductID] -= o.Quantity
	l.orders[o.ID] = o
	return o, nil
}

func (l *memLedger) FindByID(_ context.Context, id string) (domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return domain.Order{}, apperror.NewNotFoundError(id)
	}
	return o, nil
}

func (l *memLedger) ListByProduct(_ context.Context, productID string) ([]domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Order
	for _, o := range l.orders {
		if o.ProductID == productID {
			out = append(out, o)
		}
	}
	return out, nil
}

func TestSubmit_ConcurrentNeverOversells(t *testing.T) {
	ledger := newMemLedger(map[string]int{"p": 20, "q": 5})
	emitter := &recordingEmitter{}
	svc := newService(ledger, ledger, emitter)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted = map[string]int{}
	)
	for i := 0; i < 40; i++ {
		id := "p"
		if i%4 == 0 {
			id = "q"
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := svc.Submit(context.Background(), domain.OrderRequest{ProductID: id, Quantity: 1}); err == nil {
				mu.Lock()
				accepted[id]++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 20, accepted["p"])
	assert.Equal(t, 5, accepted["q"])
	assert.Zero(t, ledger.stock["p"])
	assert.Zero(t, ledger.stock["q"])
	assert.Equal(t, 25, emitter.count())
}

func TestSubmit_SameOrderTwiceRevalidates(t *testing.T) {
	ledger := newMemLedger(map[string]int{"p": 30})
	svc := newService(ledger, ledger, &recordingEmitter{})
	req := domain.OrderRequest{ProductID: "p", Quantity: 20}

	_, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), req)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, 10, ledger.stock["p"])
}

func TestSubmit_DecrementsExactly(t *testing.T) {
	for _, tc := range []struct{ stock, qty int }{{1, 1}, {10, 3}, {150, 120}, {20, 20}} {
		ledger := newMemLedger(map[string]int{"p": tc.stock})
		svc := newService(ledger, ledger, &recordingEmitter{})

		_, err := svc.Submit(context.Background(), domain.OrderRequest{ProductID: "p", Quantity: tc.qty})

		require.NoError(t, err)
		assert.Equal(t, tc.stock-tc.qty, ledger.stock["p"])
	}
}

func TestListProductOrders(t *testing.T) {
	ledger := newMemLedger(map[string]int{"p": 10})
	svc := newService(ledger, ledger, &recordingEmitter{})
	res, err := svc.Submit(context.Background(), domain.OrderRequest{ProductID: "p", Quantity: 2})
	require.NoError(t, err)

	orders, err := svc.ListProductOrders(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, res.Order.ID, orders[0].ID)

	got, err := svc.GetOrder(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)

	_, err = svc.ListProductOrders(context.Background(), "nao-existe")
	assert.True(t, apperror.IsNotFound(err))
}
