package backoffice

import (
	"context"
	"log"
	"strings"

	"github.com/fuego/backoffice/restaurant"
	"github.com/fuego/backoffice/store"
)

// FetchAnnouncements merges remote and cached announcements, newest first.
func (s *Service) FetchAnnouncements(ctx context.Context) []restaurant.Announcement {
	local := s.cache.Announcements(ctx)
	if s.remote == nil {
		return mergeByID(nil, local, announcementKey)
	}

	var rows []store.Row
	err := s.remoteCall(store.TableAnnouncements, "select", func() (err error) {
		rows, err = s.remote.Select(ctx, store.Query{
			Table:      store.TableAnnouncements,
			OrderBy:    "created_at",
			Descending: true,
		})
		return err
	})
	if err != nil {
		log.Printf("[Service] Fetch announcements failed, serving cache: %v", err)
		s.metrics.Fallback(store.TableAnnouncements, "read")
		return mergeByID(nil, local, announcementKey)
	}

	now := s.now()
	remote := make([]restaurant.Announcement, 0, len(rows))
	for _, row := range rows {
		remote = append(remote, restaurant.NormalizeAnnouncement(row, now))
	}
	return mergeByID(remote, local, announcementKey)
}

// CreateAnnouncement publishes a new, active announcement.
func (s *Service) CreateAnnouncement(ctx context.Context, message string) (restaurant.Announcement, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return restaurant.Announcement{}, ErrEmptyMessage
	}

	now := s.now()
	local := restaurant.Announcement{
		ID:        restaurant.LocalID(restaurant.LocalPrefix + s.newID()),
		Message:   message,
		IsActive:  true,
		CreatedAt: now.UnixMilli(),
	}

	if s.remote != nil {
		var rows []store.Row
		err := s.remoteCall(store.TableAnnouncements, "insert", func() (err error) {
			rows, err = s.remote.Insert(ctx, store.TableAnnouncements, []store.Row{{
				"message":   message,
				"is_active": true,
			}})
			return err
		})
		if err == nil && len(rows) > 0 {
			return restaurant.NormalizeAnnouncement(rows[0], now), nil
		}
		log.Printf("[Service] Create announcement failed, keeping it locally: %v", err)
	}

	s.mutateCache(func() {
		list := s.cache.Announcements(ctx)
		err := s.cache.SetAnnouncements(ctx, append([]restaurant.Announcement{local}, list...))
		s.metrics.LocalWrite(store.TableAnnouncements, err)
		if err != nil {
			log.Printf("[Service] Cache announcement %s failed: %v", local.ID, err)
		}
	})
	s.metrics.Fallback(store.TableAnnouncements, "create")
	return local, nil
}

// ToggleAnnouncement sets the active flag and returns the freshly fetched
// list, so optimistic client state is replaced by what storage holds.
func (s *Service) ToggleAnnouncement(ctx context.Context, id restaurant.RecordID, active bool) []restaurant.Announcement {
	remoteOK := false
	if !id.IsLocal() && s.remote != nil {
		err := s.remoteCall(store.TableAnnouncements, "update", func() error {
			return s.remote.Update(ctx, store.TableAnnouncements, id.Value, store.Row{"is_active": active})
		})
		if err != nil {
			log.Printf("[Service] Toggle announcement %s failed, recording locally: %v", id, err)
			s.metrics.Fallback(store.TableAnnouncements, "update")
		}
		remoteOK = err == nil
	}

	if !remoteOK {
		s.mutateCache(func() {
			list := s.cache.Announcements(ctx)
			changed := false
			for i := range list {
				if list[i].ID.Value == id.Value {
					list[i].IsActive = active
					changed = true
				}
			}
			if !changed {
				return
			}
			err := s.cache.SetAnnouncements(ctx, list)
			s.metrics.LocalWrite(store.TableAnnouncements, err)
			if err != nil {
				log.Printf("[Service] Cache toggle of announcement %s failed: %v", id, err)
			}
		})
	}

	return s.FetchAnnouncements(ctx)
}

// ResolveAnnouncementID turns a path identifier into a RecordID.
func (s *Service) ResolveAnnouncementID(ctx context.Context, raw string) restaurant.RecordID {
	for _, a := range s.cache.Announcements(ctx) {
		if a.ID.Value == raw {
			return a.ID
		}
	}
	return restaurant.ParseRecordID(raw)
}
