package backoffice_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuego/backoffice/backoffice"
	"github.com/fuego/backoffice/events"
	"github.com/fuego/backoffice/restaurant"
	"github.com/fuego/backoffice/store"
	"github.com/fuego/backoffice/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var fixedNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

var errNetwork = errors.New("dial tcp: connection refused")

type fixture struct {
	svc    *backoffice.Service
	remote *memory.Remote
	cache  *memory.KV
	events *events.Recorder
}

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%03d", n)
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	remote := memory.NewRemote()
	remote.SetClock(func() time.Time { return fixedNow })
	cache := memory.NewKV()
	rec := &events.Recorder{}

	svc := backoffice.NewService(backoffice.Options{
		Remote: remote,
		Cache:  cache,
		Events: rec,
		Now:    func() time.Time { return fixedNow },
		NewID:  sequence(),
	})
	return &fixture{svc: svc, remote: remote, cache: cache, events: rec}
}

func newOfflineFixture(t *testing.T) *fixture {
	t.Helper()
	cache := memory.NewKV()
	rec := &events.Recorder{}
	svc := backoffice.NewService(backoffice.Options{
		Cache:  cache,
		Events: rec,
		Now:    func() time.Time { return fixedNow },
		NewID:  sequence(),
	})
	return &fixture{svc: svc, cache: cache, events: rec}
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func reservationRow(id, name string, created time.Time) store.Row {
	return store.Row{
		"id": id, "client_name": name, "phone": "11999990000", "pax": 4,
		"date": "2024-05-20", "time": "20:00", "table_type": nil,
		"status": "pending", "created_at": stamp(created),
	}
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func TestCreateReservation_OfflineThenFetch(t *testing.T) {
	// GIVEN: no remote store configured
	f := newOfflineFixture(t)
	ctx := context.Background()

	// WHEN: a reservation is created and the list fetched
	created := f.svc.CreateReservation(ctx, backoffice.NewReservation{
		ClientName: "Ana Silva", Phone: "11", Pax: "3 Pessoas", Date: "2024-05-20", Time: "20:00",
	})
	list := f.svc.FetchReservations(ctx)

	// THEN: the reservation is there with its synthesized id and confirmed
	assert.True(t, created.ID.IsLocal())
	assert.Equal(t, "local_id001", created.ID.Value)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, restaurant.ReservationConfirmed, list[0].Status)
	assert.Equal(t, restaurant.DefaultTableType, list[0].TableType)
}

func TestCreateReservation_RemoteSuccessNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.svc.CreateReservation(ctx, backoffice.NewReservation{
		ClientName: "Bruno", Phone: "11", Pax: "6 Pessoas", Date: "2024-05-20", Time: "21:00",
	})

	assert.False(t, created.ID.IsLocal())
	assert.Equal(t, "6 Pessoas", created.Pax)
	assert.Equal(t, restaurant.ReservationConfirmed, created.Status)

	rows := f.remote.Rows(store.TableReservations)
	require.Len(t, rows, 1)
	assert.Equal(t, 6, rows[0]["pax"])

	_, cached, err := f.cache.Get(ctx, backoffice.ReservationsKey)
	require.NoError(t, err)
	assert.False(t, cached, "remote success must not touch the cache")

	assert.Len(t, f.events.OfType(events.ReservationCreated), 1)
}

func TestCreateReservation_RemoteFailureFallsBackToCache(t *testing.T) {
	// GIVEN: the remote store is unreachable
	f := newFixture(t)
	f.remote.FailWith(errNetwork)
	ctx := context.Background()

	// WHEN: creating then fetching
	created := f.svc.CreateReservation(ctx, backoffice.NewReservation{ClientName: "Carla"})
	list := f.svc.FetchReservations(ctx)

	// THEN: the local record is returned and visible
	assert.True(t, created.ID.IsLocal())
	assert.Equal(t, restaurant.DefaultPax, created.Pax)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, restaurant.ReservationConfirmed, list[0].Status)
}

func TestFetchReservations_RemoteWinsOnDuplicateID(t *testing.T) {
	// GIVEN: the same id in the remote store and in the cache
	f := newFixture(t)
	ctx := context.Background()
	f.remote.Put(store.TableReservations, reservationRow("r1", "Remote Name", fixedNow.Add(-time.Hour)))
	require.NoError(t, f.cache.Set(ctx, backoffice.ReservationsKey,
		[]byte(`[{"id":"r1","clientName":"Cached Name","createdAt":1},{"id":"local_x","clientName":"Offline","createdAt":2}]`)))

	// WHEN
	list := f.svc.FetchReservations(ctx)

	// THEN: one copy of r1, from remote, plus the offline record; newest first
	require.Len(t, list, 2)
	assert.Equal(t, "r1", list[0].ID.Value)
	assert.Equal(t, "Remote Name", list[0].ClientName)
	assert.Equal(t, "4 Pessoas", list[0].Pax)
	assert.Equal(t, "local_x", list[1].ID.Value)
	assert.True(t, list[1].ID.IsLocal())
}

func TestFetchReservations_SortedNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.remote.Put(store.TableReservations,
		reservationRow("old", "A", fixedNow.Add(-2*time.Hour)),
		reservationRow("new", "B", fixedNow.Add(-time.Minute)),
	)

	list := f.svc.FetchReservations(context.Background())

	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID.Value)
	assert.Equal(t, "old", list[1].ID.Value)
}

func TestUpdateReservationStatus_NotRevertedByOfflineRead(t *testing.T) {
	// GIVEN: a pending remote reservation
	f := newFixture(t)
	ctx := context.Background()
	f.remote.Put(store.TableReservations, reservationRow("r1", "Ana", fixedNow.Add(-time.Hour)))
	id := f.svc.ResolveReservationID(ctx, "r1")
	require.False(t, id.IsLocal())

	// WHEN: it is cancelled, then the remote store goes away
	require.NoError(t, f.svc.UpdateReservationStatus(ctx, id, restaurant.ReservationCancelled))
	f.remote.FailWith(errNetwork)
	list := f.svc.FetchReservations(ctx)

	// THEN: the remote row was updated and the offline read still shows cancelled
	assert.Equal(t, "cancelled", f.remote.Rows(store.TableReservations)[0]["status"])
	require.Len(t, list, 1)
	assert.Equal(t, restaurant.ReservationCancelled, list[0].Status)
}

func TestUpdateReservationStatus_LocalIDSkipsRemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.FailWith(errNetwork)
	created := f.svc.CreateReservation(ctx, backoffice.NewReservation{ClientName: "Dora"})
	f.remote.FailWith(nil)

	require.NoError(t, f.svc.UpdateReservationStatus(ctx, created.ID, restaurant.ReservationCancelled))

	assert.Zero(t, f.remote.Calls("update", store.TableReservations))
	list := f.svc.FetchReservations(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, restaurant.ReservationCancelled, list[0].Status)
}

func TestUpdateReservationStatus_Validation(t *testing.T) {
	f := newOfflineFixture(t)
	ctx := context.Background()
	created := f.svc.CreateReservation(ctx, backoffice.NewReservation{ClientName: "Eva"})

	err := f.svc.UpdateReservationStatus(ctx, created.ID, "seated")
	assert.ErrorIs(t, err, backoffice.ErrInvalidStatus)

	require.NoError(t, f.svc.UpdateReservationStatus(ctx, created.ID, restaurant.ReservationCancelled))
	err = f.svc.UpdateReservationStatus(ctx, created.ID, restaurant.ReservationConfirmed)
	assert.ErrorIs(t, err, backoffice.ErrInvalidTransition)
}

func TestLocalCache_LegacyBareStringIDs(t *testing.T) {
	// GIVEN: a cache payload written before ids carried their origin
	f := newOfflineFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, backoffice.ReservationsKey,
		[]byte(`[{"id":"local_k2j3h4","clientName":"Fabio","status":"confirmed","createdAt":10}]`)))

	// WHEN
	list := f.svc.FetchReservations(ctx)

	// THEN: the prefix classifies it as local
	require.Len(t, list, 1)
	assert.True(t, list[0].ID.IsLocal())
	assert.Equal(t, "local_k2j3h4", f.svc.ResolveReservationID(ctx, "local_k2j3h4").Value)
}

func TestLocalCache_CorruptPayloads(t *testing.T) {
	f := newOfflineFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, backoffice.ReservationsKey, []byte(`{not json`)))
	require.NoError(t, f.cache.Set(ctx, backoffice.MenuKey, []byte(`"oops"`)))
	require.NoError(t, f.cache.Set(ctx, backoffice.OrdersKey, []byte(`null`)))

	assert.Empty(t, f.svc.FetchReservations(ctx))
	assert.NotNil(t, f.svc.FetchOrders(ctx))
	assert.Len(t, f.svc.FetchMenu(ctx), len(restaurant.DefaultMenu()))
}

// =============================================================================
// ANNOUNCEMENTS
// =============================================================================

func TestCreateAnnouncement_EmptyMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAnnouncement(context.Background(), "   ")

	assert.ErrorIs(t, err, backoffice.ErrEmptyMessage)
	assert.Zero(t, f.remote.Calls("insert", store.TableAnnouncements))
}

func TestToggleAnnouncement_ReturnsFreshList(t *testing.T) {
	// GIVEN: one remote and one offline announcement
	f := newFixture(t)
	ctx := context.Background()
	remoteAnn, err := f.svc.CreateAnnouncement(ctx, "Música ao vivo sexta")
	require.NoError(t, err)
	f.remote.FailWith(errNetwork)
	localAnn, err := f.svc.CreateAnnouncement(ctx, "Fechado segunda")
	require.NoError(t, err)
	f.remote.FailWith(nil)

	// WHEN: both are switched off
	f.svc.ToggleAnnouncement(ctx, remoteAnn.ID, false)
	list := f.svc.ToggleAnnouncement(ctx, localAnn.ID, false)

	// THEN: the returned list reflects both changes
	require.Len(t, list, 2)
	for _, a := range list {
		assert.False(t, a.IsActive, a.Message)
	}
	assert.Equal(t, 1, f.remote.Calls("update", store.TableAnnouncements))
}

// =============================================================================
// MENU
// =============================================================================

func TestFetchMenu_HygieneFilterRemoteAndLocal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.Put(store.TableMenuItems,
		store.Row{"id": "1", "name": "Teste", "price": 1, "category": "carnes"},
		store.Row{"id": "2", "name": " PO ", "price": 1, "category": "carnes"},
		store.Row{"id": "3", "name": "Picanha", "price": "99.90", "category": " Carnes ", "highlight": "t"},
	)

	remote := f.svc.FetchMenu(ctx)
	require.Len(t, remote, 1)
	assert.Equal(t, "Picanha", remote[0].Name)
	assert.Equal(t, restaurant.CategoryMeats, remote[0].Category)
	assert.True(t, remote[0].Highlight)
	assert.Equal(t, restaurant.ImageFallback, remote[0].Image)

	// Local path: cached catalog with a test item, remote down
	require.NoError(t, f.cache.Set(ctx, backoffice.MenuKey,
		[]byte(`[{"id":"a","name":"teste","price":1},{"id":"b","name":"Fraldinha","price":50}]`)))
	f.remote.FailWith(errNetwork)

	local := f.svc.FetchMenu(ctx)
	require.Len(t, local, 1)
	assert.Equal(t, "Fraldinha", local[0].Name)
}

func TestFetchMenu_ZeroRemoteRowsIsEmptyCatalog(t *testing.T) {
	// GIVEN: a reachable remote with an empty catalog and a cached menu
	f := newFixture(t)
	ctx := context.Background()

	// WHEN
	menu := f.svc.FetchMenu(ctx)

	// THEN: empty, not the cached defaults
	assert.NotNil(t, menu)
	assert.Empty(t, menu)
}

func TestFetchMenu_RemoteErrorServesDefaults(t *testing.T) {
	f := newFixture(t)
	f.remote.FailTable(store.TableMenuItems, errNetwork)

	menu := f.svc.FetchMenu(context.Background())

	assert.Len(t, menu, len(restaurant.DefaultMenu()))
}

func TestMenuWrites_LocalAlwaysUpdated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.FailWith(errNetwork)

	item, err := f.svc.CreateMenuItem(ctx, backoffice.NewMenuItem{
		Name: "Fraldinha", Price: decimal.RequireFromString("64.50"), Category: "CARNES",
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("item_%d", fixedNow.UnixMilli()), item.ID)

	menu, err := f.svc.UpdateMenuItemPrice(ctx, item.ID, decimal.RequireFromString("70"))
	require.NoError(t, err)
	assert.True(t, findMenuItem(t, menu, item.ID).Price.Equal(decimal.NewFromInt(70)))

	_, err = f.svc.UpdateMenuItemPrice(ctx, item.ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, backoffice.ErrInvalidPrice)

	menu = f.svc.DeleteMenuItem(ctx, "1")
	for _, it := range menu {
		assert.NotEqual(t, "1", it.ID)
	}
	assert.Len(t, menu, len(restaurant.DefaultMenu()))
}

func TestResetMenu_AtomicOnRemoteFailure(t *testing.T) {
	// GIVEN: a remote catalog with a custom item, and inserts failing
	f := newFixture(t)
	ctx := context.Background()
	f.remote.Put(store.TableMenuItems, store.Row{"id": "custom", "name": "Especial", "price": 10, "category": "outros"})
	f.remote.FailOn("insert", store.TableMenuItems, errors.New("insert rejected"))

	// WHEN: resetting
	menu := f.svc.ResetMenu(ctx)

	// THEN: the remote catalog is untouched, the caller and cache get defaults
	rows := f.remote.Rows(store.TableMenuItems)
	require.Len(t, rows, 1)
	assert.Equal(t, "custom", rows[0]["id"])
	assert.Len(t, menu, len(restaurant.DefaultMenu()))

	f.remote.FailWith(errNetwork)
	assert.Len(t, f.svc.FetchMenu(ctx), len(restaurant.DefaultMenu()))
}

func TestResetMenu_ReplacesRemoteCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.remote.Put(store.TableMenuItems, store.Row{"id": "custom", "name": "Especial", "price": 10, "category": "outros"})

	f.svc.ResetMenu(ctx)

	menu := f.svc.FetchMenu(ctx)
	assert.Len(t, menu, len(restaurant.DefaultMenu()))
}

func findMenuItem(t *testing.T, menu []restaurant.MenuItem, id string) restaurant.MenuItem {
	t.Helper()
	for _, it := range menu {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("menu item %s not found", id)
	return restaurant.MenuItem{}
}

// =============================================================================
// ORDERS
// =============================================================================

func sampleOrder() backoffice.NewOrder {
	return backoffice.NewOrder{
		ClientName:  "Ana Silva",
		ClientPhone: "11999990000",
		Items: []backoffice.NewOrderItem{
			{MenuItemID: "1", Name: "Tomahawk Prime Ouro", Quantity: 1, Price: decimal.RequireFromString("189.90")},
			{MenuItemID: "14", Name: "Tiramisu Fuego", Quantity: 2, Price: decimal.RequireFromString("28.00")},
		},
	}
}

func TestCreateOrder_RemoteWithItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateOrder(ctx, sampleOrder())

	require.NoError(t, err)
	assert.False(t, order.ID.IsLocal())
	assert.True(t, order.Total.Equal(decimal.RequireFromString("245.90")))
	assert.Equal(t, restaurant.OrderPendingPayment, order.Status)
	assert.Len(t, order.Items, 2)

	fetched := f.svc.FetchOrders(ctx)
	require.Len(t, fetched, 1)
	assert.Len(t, fetched[0].Items, 2)
	assert.Len(t, f.events.OfType(events.OrderCreated), 1)
}

func TestCreateOrder_ItemFailureRollsBackHeader(t *testing.T) {
	// GIVEN: order_items inserts fail
	f := newFixture(t)
	ctx := context.Background()
	f.remote.FailOn("insert", store.TableOrderItems, errors.New("constraint"))

	// WHEN
	order, err := f.svc.CreateOrder(ctx, sampleOrder())

	// THEN: nothing remote, the order lives locally with its items
	require.NoError(t, err)
	assert.Empty(t, f.remote.Rows(store.TableOrders))
	assert.True(t, order.ID.IsLocal())
	assert.Equal(t, "local_ord_id003", order.ID.Value)
	assert.Equal(t, "local_item_id001", order.Items[0].ID)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, backoffice.NewOrder{ClientName: "X"})
	assert.ErrorIs(t, err, backoffice.ErrNoItems)

	bad := sampleOrder()
	bad.Items[0].Quantity = 0
	_, err = f.svc.CreateOrder(ctx, bad)
	assert.ErrorIs(t, err, backoffice.ErrInvalidQuantity)
}

func TestFetchOrders_NoMergeWithLocal(t *testing.T) {
	// GIVEN: an offline order in the cache and a reachable, empty remote
	f := newFixture(t)
	ctx := context.Background()
	f.remote.FailWith(errNetwork)
	_, err := f.svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	f.remote.FailWith(nil)

	// THEN: remote answers win outright
	assert.Empty(t, f.svc.FetchOrders(ctx))

	// AND: a failing remote serves the cached order
	f.remote.FailWith(errNetwork)
	assert.Len(t, f.svc.FetchOrders(ctx), 1)
}

func TestUpdateOrderStatus_ForwardOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order, err := f.svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateOrderStatus(ctx, order.ID, restaurant.OrderPaid))
	require.NoError(t, f.svc.UpdateOrderStatus(ctx, order.ID, restaurant.OrderPreparing))

	err = f.svc.UpdateOrderStatus(ctx, order.ID, restaurant.OrderPaid)
	assert.ErrorIs(t, err, backoffice.ErrInvalidTransition)

	orders := f.svc.FetchOrders(ctx)
	require.Len(t, orders, 1)
	assert.Equal(t, restaurant.OrderPreparing, orders[0].Status)
	assert.Len(t, f.events.OfType(events.OrderStatusChanged), 2)
}

// =============================================================================
// PROBES
// =============================================================================

func TestCheckSchema_Classification(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*memory.Remote)
		want  bool
	}{
		{"relation present", func(*memory.Remote) {}, true},
		{"relation missing", func(m *memory.Remote) { m.DropTable(store.TableOrders) }, false},
		{"other store error", func(m *memory.Remote) {
			m.FailTable(store.TableOrders, &store.Error{Op: "select", Table: "orders", Code: "42501", Message: "permission denied"})
		}, true},
		{"transport failure", func(m *memory.Remote) { m.FailWith(errNetwork) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f.remote)

			got := f.svc.CheckSchema(context.Background())

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, f.svc.Status().SchemaReady)
		})
	}
}

func TestCheckConnection(t *testing.T) {
	offline := newOfflineFixture(t)
	assert.False(t, offline.svc.CheckConnection(context.Background()))
	assert.False(t, offline.svc.Status().Configured)

	f := newFixture(t)
	assert.True(t, f.svc.CheckConnection(context.Background()))

	f.remote.FailWith(errNetwork)
	assert.False(t, f.svc.CheckConnection(context.Background()))
	st := f.svc.Status()
	assert.True(t, st.Configured)
	assert.False(t, st.Online)
	assert.True(t, st.Degraded())
	assert.Equal(t, fixedNow, st.CheckedAt)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestPreorder_LinkedByNameAndWindow(t *testing.T) {
	f := newOfflineFixture(t)
	ctx := context.Background()
	res := f.svc.CreateReservation(ctx, backoffice.NewReservation{ClientName: "Ana Silva"})
	order := sampleOrder()
	order.ClientName = "ana silva "
	_, err := f.svc.CreateOrder(ctx, order)
	require.NoError(t, err)

	items, ok := f.svc.Preorder(ctx, res.ID)

	assert.True(t, ok)
	assert.Len(t, items, 2)

	_, ok = f.svc.Preorder(ctx, restaurant.LocalID("local_missing"))
	assert.False(t, ok)
}
