package backoffice

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/fuego/backoffice/events"
	"github.com/fuego/backoffice/restaurant"
	"github.com/fuego/backoffice/store"
)

// ErrInvalidQuantity is returned for order lines with quantity below one.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Local order identifiers.
const (
	localOrderPrefix = restaurant.LocalPrefix + "ord_"
	localItemPrefix  = restaurant.LocalPrefix + "item_"
)

// NewOrderItem is one line of NewOrder. Price is the unit price at order time.
type NewOrderItem struct {
	MenuItemID string
	Name       string
	Quantity   int
	Price      decimal.Decimal
}

// NewOrder is the input of CreateOrder.
type NewOrder struct {
	ClientName  string
	ClientPhone string
	Items       []NewOrderItem
}

// FetchOrders returns remote orders with their items, newest first. Cached
// orders are only returned when the remote read fails or no remote is
// configured; they are never merged with remote ones.
func (s *Service) FetchOrders(ctx context.Context) []restaurant.Order {
	if s.remote == nil {
		return s.cache.Orders(ctx)
	}

	orders, err := s.remoteOrders(ctx)
	if err != nil {
		log.Printf("[Service] Fetch orders failed, serving cache: %v", err)
		s.metrics.Fallback(store.TableOrders, "read")
		return s.cache.Orders(ctx)
	}
	return orders
}

func (s *Service) remoteOrders(ctx context.Context) ([]restaurant.Order, error) {
	var rows []store.Row
	err := s.remoteCall(store.TableOrders, "select", func() (err error) {
		rows, err = s.remote.Select(ctx, store.Query{
			Table:      store.TableOrders,
			OrderBy:    "created_at",
			Descending: true,
			Embed:      []string{store.TableOrderItems},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	orders := make([]restaurant.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, restaurant.NormalizeOrder(row, now))
	}
	return orders, nil
}

// CreateOrder records an order awaiting payment. The total is computed
// here from the lines and never recomputed. Header and lines are written in
// one transaction when the remote store supports it.
func (s *Service) CreateOrder(ctx context.Context, in NewOrder) (restaurant.Order, error) {
	if len(in.Items) == 0 {
		return restaurant.Order{}, ErrNoItems
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return restaurant.Order{}, ErrInvalidQuantity
		}
		if it.Price.IsNegative() {
			return restaurant.Order{}, ErrInvalidPrice
		}
	}

	now := s.now()
	items := make([]restaurant.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, restaurant.OrderItem{
			ID:         localItemPrefix + s.newID(),
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      it.Price,
		})
	}
	local := restaurant.Order{
		ID:          restaurant.LocalID(localOrderPrefix + s.newID()),
		ClientName:  in.ClientName,
		ClientPhone: in.ClientPhone,
		Total:       restaurant.OrderTotal(items),
		Status:      restaurant.OrderPendingPayment,
		CreatedAt:   now.UnixMilli(),
		Items:       items,
	}

	if s.remote != nil {
		var created restaurant.Order
		err := s.remoteCall(store.TableOrders, "insert", func() (err error) {
			created, err = s.insertOrder(ctx, local)
			return err
		})
		if err == nil {
			s.publishOrder(ctx, events.OrderCreated, created)
			return created, nil
		}
		log.Printf("[Service] Create order for %q failed, keeping it locally: %v", in.ClientName, err)
	}

	s.mutateCache(func() {
		list := s.cache.Orders(ctx)
		err := s.cache.SetOrders(ctx, append([]restaurant.Order{local}, list...))
		s.metrics.LocalWrite(store.TableOrders, err)
		if err != nil {
			log.Printf("[Service] Cache order %s failed: %v", local.ID, err)
		}
	})
	s.metrics.Fallback(store.TableOrders, "create")
	s.publishOrder(ctx, events.OrderCreated, local)
	return local, nil
}

// insertOrder writes header then lines. Without transactions a failed line
// insert leaves the header in place and returns it without items.
func (s *Service) insertOrder(ctx context.Context, o restaurant.Order) (restaurant.Order, error) {
	now := s.now()
	write := func(r store.Remote, strict bool) (restaurant.Order, error) {
		headers, err := r.Insert(ctx, store.TableOrders, []store.Row{{
			"client_name":  o.ClientName,
			"client_phone": o.ClientPhone,
			"total":        o.Total,
			"status":       string(restaurant.OrderPendingPayment),
		}})
		if err != nil {
			return restaurant.Order{}, err
		}
		if len(headers) == 0 {
			return restaurant.Order{}, errors.New("insert returned no order row")
		}
		created := restaurant.NormalizeOrder(headers[0], now)

		lines := make([]store.Row, 0, len(o.Items))
		for _, it := range o.Items {
			lines = append(lines, store.Row{
				"order_id":     created.ID.Value,
				"menu_item_id": it.MenuItemID,
				"name":         it.Name,
				"quantity":     it.Quantity,
				"price":        it.Price,
			})
		}
		itemRows, err := r.Insert(ctx, store.TableOrderItems, lines)
		if err != nil {
			if strict {
				return restaurant.Order{}, err
			}
			log.Printf("[Service] Insert items of order %s failed: %v", created.ID, err)
		}
		for _, row := range itemRows {
			created.Items = append(created.Items, restaurant.NormalizeOrderItem(row))
		}
		return created, nil
	}

	tx, ok := s.remote.(store.TxRemote)
	if !ok {
		return write(s.remote, false)
	}

	var created restaurant.Order
	err := tx.WithTx(ctx, func(r store.Remote) (err error) {
		created, err = write(r, true)
		return err
	})
	return created, err
}

// UpdateOrderStatus moves an order through the kitchen pipeline.
func (s *Service) UpdateOrderStatus(ctx context.Context, id restaurant.RecordID, status restaurant.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	current, known := s.currentOrder(ctx, id)
	if known && !current.Status.CanTransitionTo(status) {
		return ErrInvalidTransition
	}

	if !id.IsLocal() && s.remote != nil {
		err := s.remoteCall(store.TableOrders, "update", func() error {
			return s.remote.Update(ctx, store.TableOrders, id.Value, store.Row{"status": string(status)})
		})
		if err != nil {
			log.Printf("[Service] Update order %s failed: %v", id, err)
			s.metrics.Fallback(store.TableOrders, "update")
		}
	}

	s.mutateCache(func() {
		list := s.cache.Orders(ctx)
		changed := false
		for i := range list {
			if list[i].ID.Value == id.Value {
				list[i].Status = status
				changed = true
			}
		}
		if !changed {
			return
		}
		err := s.cache.SetOrders(ctx, list)
		s.metrics.LocalWrite(store.TableOrders, err)
		if err != nil {
			log.Printf("[Service] Cache status of order %s failed: %v", id, err)
		}
	})

	if known && current.Status != status {
		current.Status = status
		s.publishOrder(ctx, events.OrderStatusChanged, current)
	} else if !known {
		s.publish(ctx, events.Event{
			Type:    events.OrderStatusChanged,
			Subject: id.Value,
			Local:   id.IsLocal(),
			Data:    map[string]string{"status": string(status)},
		})
	}
	return nil
}

// ResolveOrderID turns a path identifier into a RecordID.
func (s *Service) ResolveOrderID(ctx context.Context, raw string) restaurant.RecordID {
	for _, o := range s.cache.Orders(ctx) {
		if o.ID.Value == raw {
			return o.ID
		}
	}
	return restaurant.ParseRecordID(raw)
}

func (s *Service) currentOrder(ctx context.Context, id restaurant.RecordID) (restaurant.Order, bool) {
	if !id.IsLocal() && s.remote != nil {
		var rows []store.Row
		err := s.remoteCall(store.TableOrders, "select", func() (err error) {
			rows, err = s.remote.Select(ctx, store.Query{
				Table:   store.TableOrders,
				Filters: []store.Filter{store.Eq("id", id.Value)},
				Limit:   1,
				Embed:   []string{store.TableOrderItems},
			})
			return err
		})
		if err == nil && len(rows) > 0 {
			return restaurant.NormalizeOrder(rows[0], s.now()), true
		}
	}
	for _, o := range s.cache.Orders(ctx) {
		if o.ID.Value == id.Value {
			return o, true
		}
	}
	return restaurant.Order{}, false
}

func (s *Service) publishOrder(ctx context.Context, t events.Type, o restaurant.Order) {
	s.publish(ctx, events.Event{
		Type:    t,
		Subject: o.ID.Value,
		Local:   o.ID.IsLocal(),
		Data:    o,
	})
}
