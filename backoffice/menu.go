package backoffice

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fuego/backoffice/restaurant"
	"github.com/fuego/backoffice/store"
)

// impossibleMenuID never matches a catalog row; "id <> impossibleMenuID"
// selects the whole relation for delete-all.
const impossibleMenuID = "impossible_id_val"

// NewMenuItem is the input of CreateMenuItem.
type NewMenuItem struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Highlight   bool
	Image       string
}

// FetchMenu returns the catalog. Zero remote rows is an intentionally empty
// catalog; a remote error serves the cached menu. Leftover test items are
// filtered out of every result.
func (s *Service) FetchMenu(ctx context.Context) []restaurant.MenuItem {
	if s.remote == nil {
		return restaurant.FilterHygiene(s.cache.Menu(ctx))
	}

	var rows []store.Row
	err := s.remoteCall(store.TableMenuItems, "select", func() (err error) {
		rows, err = s.remote.Select(ctx, store.Query{Table: store.TableMenuItems})
		return err
	})
	if err != nil {
		log.Printf("[Service] Fetch menu failed, serving cache: %v", err)
		s.metrics.Fallback(store.TableMenuItems, "read")
		return restaurant.FilterHygiene(s.cache.Menu(ctx))
	}
	if len(rows) == 0 {
		return []restaurant.MenuItem{}
	}

	items := make([]restaurant.MenuItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, restaurant.NormalizeMenuItem(row))
	}
	return restaurant.FilterHygiene(items)
}

// CreateMenuItem adds an item to the cached catalog and, when configured,
// to the remote catalog. Menu ids are chosen here, so the local and remote
// copies share one id.
func (s *Service) CreateMenuItem(ctx context.Context, in NewMenuItem) (restaurant.MenuItem, error) {
	if in.Price.IsNegative() {
		return restaurant.MenuItem{}, ErrInvalidPrice
	}

	item := restaurant.MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Category:    restaurant.NormalizeCategory(in.Category),
		Highlight:   in.Highlight,
		Image:       in.Image,
	}
	if item.Name == "" {
		item.Name = restaurant.DefaultItemName
	}
	if item.Image == "" {
		item.Image = restaurant.ImageFallback
	}

	s.mutateCache(func() {
		menu := s.cache.Menu(ctx)
		item.ID = s.menuItemID(menu)
		err := s.cache.SetMenu(ctx, append(menu, item))
		s.metrics.LocalWrite(store.TableMenuItems, err)
		if err != nil {
			log.Printf("[Service] Cache menu item %s failed: %v", item.ID, err)
		}
	})

	if s.remote != nil {
		err := s.remoteCall(store.TableMenuItems, "insert", func() error {
			_, err := s.remote.Insert(ctx, store.TableMenuItems, []store.Row{menuRow(item)})
			return err
		})
		if err != nil {
			log.Printf("[Service] Create menu item %s remotely failed: %v", item.ID, err)
			s.metrics.Fallback(store.TableMenuItems, "create")
		}
	}
	return item, nil
}

// UpdateMenuItemPrice changes one price and returns the cached catalog.
func (s *Service) UpdateMenuItemPrice(ctx context.Context, id string, price decimal.Decimal) ([]restaurant.MenuItem, error) {
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	var menu []restaurant.MenuItem
	s.mutateCache(func() {
		menu = s.cache.Menu(ctx)
		for i := range menu {
			if menu[i].ID == id {
				menu[i].Price = price
			}
		}
		err := s.cache.SetMenu(ctx, menu)
		s.metrics.LocalWrite(store.TableMenuItems, err)
		if err != nil {
			log.Printf("[Service] Cache price of %s failed: %v", id, err)
		}
	})

	if s.remote != nil {
		err := s.remoteCall(store.TableMenuItems, "update", func() error {
			return s.remote.Update(ctx, store.TableMenuItems, id, store.Row{"price": price})
		})
		if err != nil {
			log.Printf("[Service] Update price of %s remotely failed: %v", id, err)
			s.metrics.Fallback(store.TableMenuItems, "update")
		}
	}
	return restaurant.FilterHygiene(menu), nil
}

// DeleteMenuItem removes an item and returns the cached catalog. A failed
// remote delete is logged and the local removal stands.
func (s *Service) DeleteMenuItem(ctx context.Context, id string) []restaurant.MenuItem {
	var menu []restaurant.MenuItem
	s.mutateCache(func() {
		current := s.cache.Menu(ctx)
		menu = make([]restaurant.MenuItem, 0, len(current))
		for _, it := range current {
			if it.ID != id {
				menu = append(menu, it)
			}
		}
		err := s.cache.SetMenu(ctx, menu)
		s.metrics.LocalWrite(store.TableMenuItems, err)
		if err != nil {
			log.Printf("[Service] Cache delete of %s failed: %v", id, err)
		}
	})

	if s.remote != nil {
		err := s.remoteCall(store.TableMenuItems, "delete", func() error {
			return s.remote.Delete(ctx, store.TableMenuItems, store.Eq("id", id))
		})
		if err != nil {
			log.Printf("[Service] Delete of %s remotely failed (local removal kept): %v", id, err)
		}
	}
	return restaurant.FilterHygiene(menu)
}

// ResetMenu replaces the catalog with the defaults. Against a store that
// supports transactions the delete and the insert commit together, so a
// failure leaves the previous catalog in place.
func (s *Service) ResetMenu(ctx context.Context) []restaurant.MenuItem {
	defaults := restaurant.DefaultMenu()

	if s.remote != nil {
		rows := make([]store.Row, 0, len(defaults))
		for _, it := range defaults {
			rows = append(rows, menuRow(it))
		}
		replace := func(r store.Remote) error {
			if err := r.Delete(ctx, store.TableMenuItems, store.Neq("id", impossibleMenuID)); err != nil {
				return err
			}
			_, err := r.Insert(ctx, store.TableMenuItems, rows)
			return err
		}

		err := s.remoteCall(store.TableMenuItems, "reset", func() error {
			if tx, ok := s.remote.(store.TxRemote); ok {
				return tx.WithTx(ctx, replace)
			}
			return replace(s.remote)
		})
		if err != nil {
			log.Printf("[Service] Reset menu remotely failed: %v", err)
			s.metrics.Fallback(store.TableMenuItems, "reset")
		}
	}

	s.mutateCache(func() {
		err := s.cache.SetMenu(ctx, defaults)
		s.metrics.LocalWrite(store.TableMenuItems, err)
		if err != nil {
			log.Printf("[Service] Cache menu reset failed: %v", err)
		}
	})
	return defaults
}

// DefaultMenuRows renders the default catalog as remote rows, for seeding.
func DefaultMenuRows() []store.Row {
	defaults := restaurant.DefaultMenu()
	rows := make([]store.Row, 0, len(defaults))
	for _, it := range defaults {
		rows = append(rows, menuRow(it))
	}
	return rows
}

func menuRow(it restaurant.MenuItem) store.Row {
	return store.Row{
		"id":          it.ID,
		"name":        it.Name,
		"description": it.Description,
		"price":       it.Price,
		"category":    string(it.Category),
		"highlight":   it.Highlight,
		"image":       it.Image,
	}
}

// menuItemID is "item_<unix ms>", suffixed when that id is already taken.
func (s *Service) menuItemID(menu []restaurant.MenuItem) string {
	id := fmt.Sprintf("item_%d", s.now().UnixMilli())
	for _, it := range menu {
		if it.ID == id {
			return id + "_" + s.newID()
		}
	}
	return id
}
