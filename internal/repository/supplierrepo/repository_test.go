package supplierrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstock/internal/domain"
	apperror "bookstock/internal/errors"
	"bookstock/internal/pkg/database/dbtest"
	"bookstock/internal/pkg/logger"
)

func newRepo(t *testing.T) *SupplierRepository {
	return NewSupplierRepository(dbtest.Open(t), 5*time.Second, logger.NewNop())
}

func TestSupplierCRUD(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	created, err := r.CreateSupplier(ctx, domain.Supplier{Name: "Companhia das Letras"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := r.GetSupplierByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Companhia das Letras", got.Name)

	updated, err := r.UpdateSupplier(ctx, domain.Supplier{ID: created.ID, Name: "Cia. das Letras"})
	require.NoError(t, err)
	assert.Equal(t, "Cia. das Letras", updated.Name)

	all, err := r.GetAllSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, r.DeleteSupplier(ctx, created.ID))
	_, err = r.GetSupplierByID(ctx, created.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSupplierNotFound(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	_, err := r.UpdateSupplier(ctx, domain.Supplier{ID: "x", Name: "y"})
	assert.True(t, apperror.IsNotFound(err))

	err = r.DeleteSupplier(ctx, "x")
	assert.True(t, apperror.IsNotFound(err))
}

func TestCountProducts(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	s, err := r.CreateSupplier(ctx, domain.Supplier{Name: "Rocco"})
	require.NoError(t, err)

	now := time.Now().UTC()
	for _, id := range []string{"p-1", "p-2"} {
		_, err := r.DB.Exec(r.DB.Rebind(`INSERT INTO products (id, name, price, stock_quantity, in_stock, supplier_id, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`), id, id, "1", 1, true, s.ID, domain.ProductActive, now, now)
		require.NoError(t, err)
	}

	n, err := r.CountProducts(ctx, s.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
