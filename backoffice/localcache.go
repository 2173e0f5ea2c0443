package backoffice

import (
	"context"
	"encoding/json"
	"log"

	"github.com/fuego/backoffice/restaurant"
	"github.com/fuego/backoffice/store"
)

// Cache keys, one JSON array per entity. The menu key carries a version:
// bumping it makes every existing cached menu fall back to the defaults.
const (
	ReservationsKey  = "fuego_reservations"
	AnnouncementsKey = "fuego_announcements"
	MenuKey          = "fuego_menu_v9"
	OrdersKey        = "fuego_orders"
)

// LocalCache reads and writes typed collections on a store.KV. Missing or
// unreadable payloads come back as empty collections (the default catalog
// for the menu), never as errors.
type LocalCache struct {
	kv store.KV
}

func NewLocalCache(kv store.KV) *LocalCache {
	return &LocalCache{kv: kv}
}

func (c *LocalCache) Reservations(ctx context.Context) []restaurant.Reservation {
	return load(ctx, c.kv, ReservationsKey, func() []restaurant.Reservation { return []restaurant.Reservation{} })
}

func (c *LocalCache) SetReservations(ctx context.Context, v []restaurant.Reservation) error {
	return save(ctx, c.kv, ReservationsKey, v)
}

func (c *LocalCache) Announcements(ctx context.Context) []restaurant.Announcement {
	return load(ctx, c.kv, AnnouncementsKey, func() []restaurant.Announcement { return []restaurant.Announcement{} })
}

func (c *LocalCache) SetAnnouncements(ctx context.Context, v []restaurant.Announcement) error {
	return save(ctx, c.kv, AnnouncementsKey, v)
}

func (c *LocalCache) Menu(ctx context.Context) []restaurant.MenuItem {
	return load(ctx, c.kv, MenuKey, restaurant.DefaultMenu)
}

func (c *LocalCache) SetMenu(ctx context.Context, v []restaurant.MenuItem) error {
	return save(ctx, c.kv, MenuKey, v)
}

func (c *LocalCache) Orders(ctx context.Context) []restaurant.Order {
	return load(ctx, c.kv, OrdersKey, func() []restaurant.Order { return []restaurant.Order{} })
}

func (c *LocalCache) SetOrders(ctx context.Context, v []restaurant.Order) error {
	return save(ctx, c.kv, OrdersKey, v)
}

func load[T any](ctx context.Context, kv store.KV, key string, def func() []T) []T {
	if kv == nil {
		return def()
	}
	payload, ok, err := kv.Get(ctx, key)
	if err != nil {
		log.Printf("[Cache] Read %s failed: %v", key, err)
		return def()
	}
	if !ok {
		return def()
	}

	var out []T
	if err := json.Unmarshal(payload, &out); err != nil {
		log.Printf("[Cache] Discarding unreadable %s payload: %v", key, err)
		return def()
	}
	if out == nil {
		return def()
	}
	return out
}

func save[T any](ctx context.Context, kv store.KV, key string, v []T) error {
	if kv == nil {
		return nil
	}
	if v == nil {
		v = []T{}
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Set(ctx, key, payload)
}
