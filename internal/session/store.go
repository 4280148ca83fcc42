// internal/session/store.go
package session

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/mintnprint/backend/internal/models"
)

// entry is the whole per-session state. The flow assumes a single writer
// per session id; concurrent writers for the same id are last-write-wins.
type entry struct {
	Image *models.ImageRecord
	Order *models.OrderRecord
}

// Store keeps per-session image and order records in a TTL-evicting map.
// Sessions are keyed by an explicit caller-derived id and expire after
// the configured idle period so memory stays bounded.
type Store struct {
	cache *ttlcache.Cache[string, *entry]
}

func NewStore(ttl time.Duration) *Store {
	cache := ttlcache.New[string, *entry](
		ttlcache.WithTTL[string, *entry](ttl),
	)
	go cache.Start()

	return &Store{cache: cache}
}

// Get returns the image and order records for a session, either of which
// may be nil. Reading a session refreshes its TTL.
func (s *Store) Get(sessionID string) (*models.ImageRecord, *models.OrderRecord) {
	item := s.cache.Get(sessionID)
	if item == nil {
		return nil, nil
	}
	e := item.Value()
	return e.Image, e.Order
}

func (s *Store) SetImage(sessionID string, image *models.ImageRecord) {
	e := s.load(sessionID)
	e.Image = image
	s.cache.Set(sessionID, e, ttlcache.DefaultTTL)
}

func (s *Store) SetOrder(sessionID string, order *models.OrderRecord) {
	e := s.load(sessionID)
	e.Order = order
	s.cache.Set(sessionID, e, ttlcache.DefaultTTL)
}

// Clear drops all state for a session. Called when a new prompt starts.
func (s *Store) Clear(sessionID string) {
	s.cache.Delete(sessionID)
}

// Stop terminates the background eviction loop.
func (s *Store) Stop() {
	s.cache.Stop()
}

func (s *Store) load(sessionID string) *entry {
	if item := s.cache.Get(sessionID); item != nil {
		return item.Value()
	}
	return &entry{}
}
