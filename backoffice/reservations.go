package backoffice

import (
	"context"
	"log"
	"sort"

	"github.com/fuego/backoffice/events"
	"github.com/fuego/backoffice/restaurant"
	"github.com/fuego/backoffice/store"
)

// NewReservation is the input of CreateReservation.
type NewReservation struct {
	ClientName string
	Phone      string
	Pax        string // display form, e.g. "4 Pessoas"
	Date       string
	Time       string
	TableType  string
}

// FetchReservations merges remote and cached reservations, newest first.
// When the remote read fails only cached reservations are returned.
func (s *Service) FetchReservations(ctx context.Context) []restaurant.Reservation {
	local := s.cache.Reservations(ctx)
	if s.remote == nil {
		return mergeByID(nil, local, reservationKey)
	}

	var rows []store.Row
	err := s.remoteCall(store.TableReservations, "select", func() (err error) {
		rows, err = s.remote.Select(ctx, store.Query{
			Table:      store.TableReservations,
			OrderBy:    "created_at",
			Descending: true,
		})
		return err
	})
	if err != nil {
		log.Printf("[Service] Fetch reservations failed, serving cache: %v", err)
		s.metrics.Fallback(store.TableReservations, "read")
		return mergeByID(nil, local, reservationKey)
	}

	now := s.now()
	remote := make([]restaurant.Reservation, 0, len(rows))
	for _, row := range rows {
		remote = append(remote, restaurant.NormalizeReservation(row, now))
	}
	return mergeByID(remote, local, reservationKey)
}

// CreateReservation books a table. The reservation is always confirmed.
// If the remote insert fails the reservation is kept in the local cache
// under a local id.
func (s *Service) CreateReservation(ctx context.Context, in NewReservation) restaurant.Reservation {
	now := s.now()
	pax := in.Pax
	if pax == "" {
		pax = restaurant.DefaultPax
	}
	tableType := in.TableType
	if tableType == "" {
		tableType = restaurant.DefaultTableType
	}

	local := restaurant.Reservation{
		ID:         restaurant.LocalID(restaurant.LocalPrefix + s.newID()),
		ClientName: in.ClientName,
		Phone:      in.Phone,
		Pax:        pax,
		Date:       in.Date,
		Time:       in.Time,
		TableType:  tableType,
		Status:     restaurant.ReservationConfirmed,
		CreatedAt:  now.UnixMilli(),
	}

	if s.remote != nil {
		var rows []store.Row
		err := s.remoteCall(store.TableReservations, "insert", func() (err error) {
			rows, err = s.remote.Insert(ctx, store.TableReservations, []store.Row{{
				"client_name": in.ClientName,
				"phone":       in.Phone,
				"pax":         restaurant.ParsePax(pax),
				"date":        in.Date,
				"time":        in.Time,
				"table_type":  tableType,
				"status":      string(restaurant.ReservationConfirmed),
			}})
			return err
		})
		if err == nil && len(rows) > 0 {
			created := restaurant.NormalizeReservation(rows[0], now)
			s.publishReservation(ctx, created)
			return created
		}
		log.Printf("[Service] Create reservation for %q failed, keeping it locally: %v", in.ClientName, err)
	}

	s.mutateCache(func() {
		list := s.cache.Reservations(ctx)
		err := s.cache.SetReservations(ctx, append([]restaurant.Reservation{local}, list...))
		s.metrics.LocalWrite(store.TableReservations, err)
		if err != nil {
			log.Printf("[Service] Cache reservation %s failed: %v", local.ID, err)
		}
	})
	s.metrics.Fallback(store.TableReservations, "create")
	s.publishReservation(ctx, local)
	return local
}

// UpdateReservationStatus moves a reservation to status. Local ids and
// unconfigured deployments only touch the cache. A remote update is
// attempted otherwise; in every case the cached copy carries the new
// status so a later offline read does not revert it.
func (s *Service) UpdateReservationStatus(ctx context.Context, id restaurant.RecordID, status restaurant.ReservationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	current, known := s.currentReservation(ctx, id)
	if known && !current.Status.CanTransitionTo(status) {
		return ErrInvalidTransition
	}

	if !id.IsLocal() && s.remote != nil {
		err := s.remoteCall(store.TableReservations, "update", func() error {
			return s.remote.Update(ctx, store.TableReservations, id.Value, store.Row{"status": string(status)})
		})
		if err != nil {
			log.Printf("[Service] Update reservation %s failed, recording locally: %v", id, err)
			s.metrics.Fallback(store.TableReservations, "update")
		}
	}

	s.mutateCache(func() {
		list := s.cache.Reservations(ctx)
		found := false
		for i := range list {
			if list[i].ID.Value == id.Value {
				list[i].Status = status
				found = true
			}
		}
		if !found {
			if !known {
				return
			}
			current.Status = status
			list = append([]restaurant.Reservation{current}, list...)
		}
		err := s.cache.SetReservations(ctx, list)
		s.metrics.LocalWrite(store.TableReservations, err)
		if err != nil {
			log.Printf("[Service] Cache status of reservation %s failed: %v", id, err)
		}
	})
	return nil
}

// ResolveReservationID turns a path identifier into a RecordID, using the
// cached origin when the record is cached and the id prefix otherwise.
func (s *Service) ResolveReservationID(ctx context.Context, raw string) restaurant.RecordID {
	for _, r := range s.cache.Reservations(ctx) {
		if r.ID.Value == raw {
			return r.ID
		}
	}
	return restaurant.ParseRecordID(raw)
}

// currentReservation looks the record up remotely, then in the cache.
func (s *Service) currentReservation(ctx context.Context, id restaurant.RecordID) (restaurant.Reservation, bool) {
	if !id.IsLocal() && s.remote != nil {
		var rows []store.Row
		err := s.remoteCall(store.TableReservations, "select", func() (err error) {
			rows, err = s.remote.Select(ctx, store.Query{
				Table:   store.TableReservations,
				Filters: []store.Filter{store.Eq("id", id.Value)},
				Limit:   1,
			})
			return err
		})
		if err == nil && len(rows) > 0 {
			return restaurant.NormalizeReservation(rows[0], s.now()), true
		}
	}
	for _, r := range s.cache.Reservations(ctx) {
		if r.ID.Value == id.Value {
			return r, true
		}
	}
	return restaurant.Reservation{}, false
}

func (s *Service) publishReservation(ctx context.Context, r restaurant.Reservation) {
	s.publish(ctx, events.Event{
		Type:    events.ReservationCreated,
		Subject: r.ID.Value,
		Local:   r.ID.IsLocal(),
		Data:    r,
	})
}

// =============================================================================
// MERGE
// =============================================================================

type keyed interface {
	restaurant.Reservation | restaurant.Announcement
}

func reservationKey(r restaurant.Reservation) (string, int64)   { return r.ID.Value, r.CreatedAt }
func announcementKey(a restaurant.Announcement) (string, int64) { return a.ID.Value, a.CreatedAt }

// mergeByID concatenates remote then local, keeps the first record per id
// and sorts newest first. Records without an id are dropped.
func mergeByID[T keyed](remote, local []T, key func(T) (string, int64)) []T {
	seen := make(map[string]bool, len(remote)+len(local))
	out := make([]T, 0, len(remote)+len(local))
	for _, src := range [][]T{remote, local} {
		for _, rec := range src {
			id, _ := key(rec)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		_, a := key(out[i])
		_, b := key(out[j])
		return a > b
	})
	return out
}
