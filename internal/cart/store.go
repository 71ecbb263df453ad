// Package cart owns the shopping cart line items.
//
// Every mutation attempts the authoritative remote call first. On success
// the server snapshot replaces local state wholesale (the server is the
// source of truth for pricing and availability). On failure an equivalent
// mutation is applied to the local copy only, so the cart never appears
// frozen, and the error is recorded for surfacing. The store keeps the
// last authoritative snapshot apart from the visible (possibly locally
// overridden) copy, which makes the "server wins" reconciliation rule
// explicit: any later authoritative snapshot discards pending overrides.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/resourcemart/storefront/internal/client"
	"github.com/resourcemart/storefront/internal/logging"
	"github.com/resourcemart/storefront/internal/models"
)

// StorageKey is the durable key-value entry holding the cart snapshot.
const StorageKey = "cart-storage"

// Remote is the authoritative cart service. *client.CartClient satisfies
// it; tests inject fakes.
type Remote interface {
	Get(ctx context.Context) (*models.Cart, error)
	AddItem(ctx context.Context, resourceID string, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, resourceID string, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, resourceID string) (*models.Cart, error)
	Clear(ctx context.Context) (*models.Cart, error)
}

// Persister stores the durable cart snapshot across restarts.
type Persister interface {
	Load(key string, dst any) (bool, error)
	Save(key string, v any) error
}

type Store struct {
	remote  Remote
	persist Persister
	log     *slog.Logger

	mu sync.Mutex
	// server is the last authoritative snapshot; local is what the UI
	// sees. They diverge only while dirty, i.e. while a local fallback
	// mutation awaits reconciliation with the server.
	server  models.Cart
	local   models.Cart
	dirty   bool
	loading bool
	err     string

	// seq orders racing mutations: only a response at least as new as
	// the last applied one may overwrite state.
	seq        uint64
	appliedSeq uint64
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore builds a cart store and synchronously rehydrates the persisted
// snapshot, so the cart survives a restart even before the first remote
// reconciliation. Call Refresh afterwards to reconcile with the server.
func NewStore(remote Remote, persist Persister, opts ...Option) *Store {
	s := &Store{
		remote:  remote,
		persist: persist,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.persist != nil {
		var snap models.Cart
		ok, err := s.persist.Load(StorageKey, &snap)
		if err != nil {
			s.log.Warn("cart_rehydrate_failed", "error", err)
		} else if ok {
			snap.Recalculate()
			s.server = snap
			s.local = cloneCart(snap)
			// Persisted state is not trusted until the server confirms it.
			s.dirty = true
		}
	}
	return s
}

// Refresh replaces local state with the server's canonical cart.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	seq := s.nextSeqLocked()
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	snap, err := s.remote.Get(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = errorMessage(err)
		s.log.Warn("cart_refresh_failed", "error", err)
		return err
	}
	s.applyServerLocked(seq, snap)
	return nil
}

// AddItem puts one unit of the resource in the cart. Adding a resource
// already present increments its quantity instead of creating a second
// line, in both the remote and the fallback path.
func (s *Store) AddItem(ctx context.Context, res models.Resource) error {
	return s.mutate(ctx, "add_item",
		func(ctx context.Context) (*models.Cart, error) {
			return s.remote.AddItem(ctx, res.ID, 1)
		},
		func(c *models.Cart) {
			for i := range c.Items {
				if c.Items[i].ResourceID == res.ID {
					c.Items[i].Quantity++
					return
				}
			}
			c.Items = append(c.Items, models.CartItem{
				ResourceID: res.ID,
				Title:      res.Title,
				Price:      res.Price,
				Thumbnail:  res.Thumbnail,
				Quantity:   1,
			})
		})
}

// UpdateQuantity sets the line quantity. A quantity of zero or less is
// defined as removal, not an error.
func (s *Store) UpdateQuantity(ctx context.Context, resourceID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, resourceID)
	}
	return s.mutate(ctx, "update_quantity",
		func(ctx context.Context) (*models.Cart, error) {
			return s.remote.UpdateItem(ctx, resourceID, quantity)
		},
		func(c *models.Cart) {
			for i := range c.Items {
				if c.Items[i].ResourceID == resourceID {
					c.Items[i].Quantity = quantity
					return
				}
			}
		})
}

func (s *Store) RemoveItem(ctx context.Context, resourceID string) error {
	return s.mutate(ctx, "remove_item",
		func(ctx context.Context) (*models.Cart, error) {
			return s.remote.RemoveItem(ctx, resourceID)
		},
		func(c *models.Cart) {
			items := c.Items[:0]
			for _, it := range c.Items {
				if it.ResourceID != resourceID {
					items = append(items, it)
				}
			}
			c.Items = items
		})
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "clear_cart",
		func(ctx context.Context) (*models.Cart, error) {
			return s.remote.Clear(ctx)
		},
		func(c *models.Cart) {
			c.Items = nil
		})
}

// mutate runs one cart mutation: remote first, equivalent local fallback on
// failure. The returned error reports the remote outcome; even when it is
// non-nil the visible cart has been updated locally.
func (s *Store) mutate(ctx context.Context, op string, remote func(context.Context) (*models.Cart, error), fallback func(*models.Cart)) error {
	s.mu.Lock()
	seq := s.nextSeqLocked()
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	snap, err := remote(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err == nil {
		s.applyServerLocked(seq, snap)
		s.log.Debug("cart_mutation_applied", "op", op, "items", len(s.local.Items))
		return nil
	}

	// Local fallback keeps the UI responsive; derived aggregates are
	// recomputed, never patched, so the total cannot drift.
	fallback(&s.local)
	s.local.Recalculate()
	s.dirty = true
	s.err = errorMessage(err)
	s.persistLocked()
	s.log.Warn("cart_mutation_fallback", "op", op, "error", err)
	return err
}

func (s *Store) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

// applyServerLocked installs an authoritative snapshot unless an even newer
// mutation has already been applied. Server truth wins over any pending
// local override.
func (s *Store) applyServerLocked(seq uint64, snap *models.Cart) {
	if seq < s.appliedSeq {
		s.log.Debug("cart_snapshot_stale_dropped")
		return
	}
	s.appliedSeq = seq
	c := cloneCart(*snap)
	c.Recalculate()
	s.server = c
	s.local = cloneCart(c)
	s.dirty = false
	s.persistLocked()
}

func (s *Store) persistLocked() {
	if s.persist == nil {
		return
	}
	if err := s.persist.Save(StorageKey, s.local); err != nil {
		s.log.Warn("cart_persist_failed", "error", err)
	}
}

// IsInCart is a synchronous lookup used to render "add to cart" controls
// idempotently.
func (s *Store) IsInCart(resourceID string) bool {
	_, ok := s.ItemByID(resourceID)
	return ok
}

func (s *Store) ItemByID(resourceID string) (models.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.local.Items {
		if it.ResourceID == resourceID {
			return it, true
		}
	}
	return models.CartItem{}, false
}

// Items returns a copy of the visible line items.
func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartItem(nil), s.local.Items...)
}

func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Total
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.ItemCount
}

// Pending reports whether local mutations await server reconciliation.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

func cloneCart(c models.Cart) models.Cart {
	out := c
	out.Items = append([]models.CartItem(nil), c.Items...)
	return out
}

func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
