package backoffice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuego/backoffice/backoffice"
	"github.com/fuego/backoffice/store"
)

func TestBoard_FailedPollKeepsPreviousOrders(t *testing.T) {
	// GIVEN: a board that has loaded one order
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)

	board := backoffice.NewBoard(f.svc)
	require.True(t, board.Poll(ctx))
	require.Len(t, board.Snapshot().Orders, 1)

	// WHEN: the next periodic poll fails
	f.remote.FailWith(errNetwork)
	ok := board.Poll(ctx)

	// THEN: the previous orders stay on the board
	assert.False(t, ok)
	snap := board.Snapshot()
	assert.Len(t, snap.Orders, 1)
	assert.Equal(t, fixedNow, snap.FetchedAt)
}

func TestBoard_RefreshShowsOfflineOrders(t *testing.T) {
	// GIVEN: the remote store fails and an order is taken on the local cache
	f := newFixture(t)
	ctx := context.Background()
	f.remote.FailWith(errNetwork)
	created, err := f.svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)
	require.True(t, created.ID.IsLocal())

	// WHEN: the board is refreshed
	board := backoffice.NewBoard(f.svc)
	board.Refresh(ctx)

	// THEN: the locally created order is on the board, as FetchOrders returns it
	snap := board.Snapshot()
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, created.ID, snap.Orders[0].ID)
	assert.Equal(t, f.svc.FetchOrders(ctx), snap.Orders)
}

func TestBoard_ActivationLoadsOfflineOrders(t *testing.T) {
	// GIVEN: an order taken locally while the remote store fails
	f := newFixture(t)
	ctx := context.Background()
	f.remote.FailWith(errNetwork)
	created, err := f.svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)

	// WHEN: the board is opened
	board := backoffice.NewBoard(f.svc)
	board.Interval = time.Hour
	board.Activate()
	defer board.Deactivate()

	// THEN: the first load falls back to the cache
	assert.Eventually(t, func() bool {
		orders := board.Snapshot().Orders
		return len(orders) == 1 && orders[0].ID == created.ID
	}, time.Second, 5*time.Millisecond)
}

func TestBoard_ActivateDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateOrder(ctx, sampleOrder())
	require.NoError(t, err)

	board := backoffice.NewBoard(f.svc)
	board.Interval = 10 * time.Millisecond

	board.Activate()
	board.Activate() // no second ticker
	assert.True(t, board.Active())

	assert.Eventually(t, func() bool {
		return f.remote.Calls("select", store.TableOrders) >= 2
	}, time.Second, 5*time.Millisecond)

	board.Deactivate()
	assert.False(t, board.Active())
	assert.Len(t, board.Snapshot().Orders, 1)

	calls := f.remote.Calls("select", store.TableOrders)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, f.remote.Calls("select", store.TableOrders), "no refresh after deactivate")
}

func TestBoard_SkipsTicksWhileOffline(t *testing.T) {
	// GIVEN: the connection check has marked the store offline
	f := newFixture(t)
	f.remote.FailWith(errNetwork)
	f.svc.CheckConnection(context.Background())
	before := f.remote.Calls("select", store.TableOrders)

	// WHEN: the board runs for several intervals
	board := backoffice.NewBoard(f.svc)
	board.Interval = 5 * time.Millisecond
	board.Activate()
	time.Sleep(40 * time.Millisecond)
	board.Deactivate()

	// THEN: only the activation refresh reached the store
	assert.Equal(t, before+1, f.remote.Calls("select", store.TableOrders))
}
