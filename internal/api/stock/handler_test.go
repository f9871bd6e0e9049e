package stock_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookstock/internal/api/stock"
	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/logger"
	"bookstock/internal/pkg/middleware"
)

type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) ReduceStock(ctx context.Context, adj domain.StockAdjustment) (domain.StockLevel, error) {
	args := m.Called(ctx, adj)
	return args.Get(0).(domain.StockLevel), args.Error(1)
}

func (m *MockStockService) BoostStock(ctx context.Context, adj domain.StockAdjustment) (domain.StockLevel, error) {
	args := m.Called(ctx, adj)
	return args.Get(0).(domain.StockLevel), args.Error(1)
}

func request(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.SetPathValue("id", "p-1")
	return req.WithContext(middleware.WithUserClaims(req.Context(), middleware.UserClaims{UserID: "admin-1", Role: domain.RoleAdmin}))
}

func TestReduceStockHandler_Success(t *testing.T) {
	svc := new(MockStockService)
	h := stock.NewHandler(svc, logger.NewNop())

	svc.On("ReduceStock", mock.Anything, domain.StockAdjustment{ProductID: "p-1", Quantity: 5, Actor: "admin-1"}).
		Return(domain.StockLevel{ProductID: "p-1", StockQuantity: 5, InStock: true, Message: "Stock reduced by 5"}, nil).Once()

	rec := httptest.NewRecorder()
	h.ReduceStockHandler(rec, request("/v1/products/p-1/stock/reduce", `{"quantity":5}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	var level domain.StockLevel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &level))
	assert.Equal(t, 5, level.StockQuantity)
}

func TestReduceStockHandler_InsufficientStockCarriesDetails(t *testing.T) {
	svc := new(MockStockService)
	h := stock.NewHandler(svc, logger.NewNop())

	svc.On("ReduceStock", mock.Anything, mock.Anything).
		Return(domain.StockLevel{}, apperror.NewInsufficientStockError("insufficient stock", 3, 5)).Once()

	rec := httptest.NewRecorder()
	h.ReduceStockHandler(rec, request("/v1/products/p-1/stock/reduce", `{"quantity":5}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body domain.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 3, body.Details["available"])
	assert.EqualValues(t, 5, body.Details["requested"])
}

func TestBoostStockHandler_Timeout(t *testing.T) {
	svc := new(MockStockService)
	h := stock.NewHandler(svc, logger.NewNop())

	svc.On("BoostStock", mock.Anything, mock.Anything).
		Return(domain.StockLevel{}, apperror.NewTimeoutError("ocupado", errors.New("deadline"))).Once()

	rec := httptest.NewRecorder()
	h.BoostStockHandler(rec, request("/v1/products/p-1/stock/boost", `{"quantity":5}`))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBoostStockHandler_MalformedBody(t *testing.T) {
	svc := new(MockStockService)
	h := stock.NewHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.BoostStockHandler(rec, request("/v1/products/p-1/stock/boost", `{"quantity":"cinco"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "BoostStock", mock.Anything, mock.Anything)
}
