package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuego/backoffice/store"
	"github.com/fuego/backoffice/store/memory"
)

func TestRemote_InsertFillsDefaults(t *testing.T) {
	m := memory.NewRemote()

	rows, err := m.Insert(context.Background(), store.TableReservations, []store.Row{
		{"client_name": "Ana", "phone": "1", "pax": 2, "date": "2024-05-01", "time": "20:00"},
	})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0]["id"])
	assert.NotEmpty(t, rows[0]["created_at"])
	assert.Equal(t, "confirmed", rows[0]["status"])
}

func TestRemote_UnknownColumnIsStoreError(t *testing.T) {
	m := memory.NewRemote()

	_, err := m.Insert(context.Background(), store.TableAnnouncements, []store.Row{{"body": "x"}})

	require.Error(t, err)
	assert.True(t, store.IsStoreError(err))
	assert.ErrorIs(t, err, store.ErrUnknownColumn)
}

func TestRemote_DroppedTableReportsUndefinedTable(t *testing.T) {
	// GIVEN: a deployment where orders was never migrated
	m := memory.NewRemote()
	m.DropTable(store.TableOrders)

	// WHEN: probing the relation
	_, err := m.Select(context.Background(), store.Query{Table: store.TableOrders, Limit: 1})

	// THEN: the error carries 42P01
	require.Error(t, err)
	assert.True(t, store.IsUndefinedTable(err))
}

func TestRemote_FailOnIsScoped(t *testing.T) {
	m := memory.NewRemote()
	boom := errors.New("boom")
	m.FailOn("insert", store.TableMenuItems, boom)
	ctx := context.Background()

	_, err := m.Select(ctx, store.Query{Table: store.TableMenuItems})
	assert.NoError(t, err)

	_, err = m.Insert(ctx, store.TableMenuItems, []store.Row{{"id": "a", "name": "A", "price": 1, "category": "carnes"}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.Calls("insert", store.TableMenuItems))

	m.FailOn("insert", store.TableMenuItems, nil)
	_, err = m.Insert(ctx, store.TableMenuItems, []store.Row{{"id": "a", "name": "A", "price": 1, "category": "carnes"}})
	assert.NoError(t, err)
}

func TestRemote_WithTxRollsBackOnError(t *testing.T) {
	// GIVEN: a catalog with one item
	m := memory.NewRemote()
	ctx := context.Background()
	m.Put(store.TableMenuItems, store.Row{"id": "x", "name": "Picanha", "price": 10, "category": "carnes"})
	m.FailOn("insert", store.TableMenuItems, errors.New("insert failed"))

	// WHEN: delete-all then insert fails inside one transaction
	err := m.WithTx(ctx, func(tx store.Remote) error {
		if err := tx.Delete(ctx, store.TableMenuItems, store.Neq("id", "0")); err != nil {
			return err
		}
		_, err := tx.Insert(ctx, store.TableMenuItems, []store.Row{{"id": "y", "name": "Y", "price": 1, "category": "outros"}})
		return err
	})

	// THEN: the delete is undone
	require.Error(t, err)
	rows := m.Rows(store.TableMenuItems)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0]["id"])
}

func TestRemote_EmbedAndCascade(t *testing.T) {
	m := memory.NewRemote()
	ctx := context.Background()

	orders, err := m.Insert(ctx, store.TableOrders, []store.Row{{"client_name": "Ana", "total": 20}})
	require.NoError(t, err)
	orderID := orders[0]["id"]

	_, err = m.Insert(ctx, store.TableOrderItems, []store.Row{
		{"order_id": orderID, "name": "Picanha", "quantity": 2, "price": 10},
	})
	require.NoError(t, err)

	got, err := m.Select(ctx, store.Query{Table: store.TableOrders, Embed: []string{store.TableOrderItems}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0][store.TableOrderItems], 1)

	require.NoError(t, m.Delete(ctx, store.TableOrders, store.Eq("id", orderID)))
	assert.Empty(t, m.Rows(store.TableOrderItems))
}

func TestRemote_OrphanItemRejected(t *testing.T) {
	m := memory.NewRemote()

	_, err := m.Insert(context.Background(), store.TableOrderItems, []store.Row{{"order_id": "missing", "name": "x"}})

	require.Error(t, err)
	assert.True(t, store.IsStoreError(err))
	assert.False(t, store.IsUndefinedTable(err))
}

func TestKV_RoundTripAndFailure(t *testing.T) {
	kv := memory.NewKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	p, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(p))

	kv.FailWith(errors.New("disk full"))
	assert.Error(t, kv.Set(ctx, "k", []byte("w")))
}
