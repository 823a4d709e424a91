// Package bell holds the notification bell's in-memory state for one
// signed-in user: the fetched list, the derived unread badge, and the
// optimistic mutations behind mark-read, delete and clear-all.
package bell

import (
	"context"
	"log"
	"sync"

	"campus-connect-go/internal/models"
)

// At most this many records are fetched per refresh, newest first.
const fetchLimit = 50

// Backend is the slice of the notification store the bell consumes.
// *store.PostgresStore satisfies it directly.
type Backend interface {
	GetNotifications(ctx context.Context, userID, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id int) error
	MarkAllNotificationsRead(ctx context.Context, userID int) error
	DeleteNotification(ctx context.Context, userID, id int) error
	DeleteAllNotifications(ctx context.Context, userID int) error
}

// Feed opens a stream of change signals for one user's notification records.
// Signals carry no row data; every signal triggers a full refetch, so no
// ordering guarantee is needed from the underlying channel. The stop func
// releases the listener. store.ChangeFeed has this shape.
type Feed func(ctx context.Context, userID int) (<-chan struct{}, func())

// Container is the bell's state. Local state is authoritative for immediate
// rendering; the backing store catches up asynchronously and the next refresh
// reconciles any divergence. No operation blocks on store confirmation.
type Container struct {
	backend Backend
	feed    Feed

	mu       sync.Mutex
	userID   int
	gen      int // bumped on owner change or close; stale refresh results are dropped
	records  []models.Notification
	open     bool
	loading  bool
	clearing bool
	stop     context.CancelFunc
}

func NewContainer(backend Backend, feed Feed) *Container {
	return &Container{backend: backend, feed: feed}
}

// SetUser switches the container to a new owner: the previous listener is
// released, the list is refetched, and a standing change-event subscription is
// opened. A zero userID just tears down.
func (c *Container) SetUser(ctx context.Context, userID int) {
	c.mu.Lock()
	if c.userID == userID {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.userID = userID
	gen := c.gen
	if userID == 0 {
		c.mu.Unlock()
		return
	}
	feedCtx, cancel := context.WithCancel(context.Background())
	c.stop = cancel
	c.mu.Unlock()

	c.refresh(ctx, gen, userID)

	if c.feed == nil {
		return
	}
	ch, release := c.feed(feedCtx, userID)
	go func() {
		defer release()
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
				c.refresh(feedCtx, gen, userID)
			case <-feedCtx.Done():
				return
			}
		}
	}()
}

// Close releases the change-event listener. Refresh results still in flight
// are discarded when they land.
func (c *Container) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	c.userID = 0
}

func (c *Container) teardownLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.gen++
	c.records = nil
	c.open = false
	c.loading = false
	c.clearing = false
}

// Refresh refetches the list wholesale and replaces the in-memory copy.
func (c *Container) Refresh(ctx context.Context) {
	c.mu.Lock()
	gen, userID := c.gen, c.userID
	c.mu.Unlock()
	if userID == 0 {
		return
	}
	c.refresh(ctx, gen, userID)
}

func (c *Container) refresh(ctx context.Context, gen, userID int) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.mu.Unlock()

	records, err := c.backend.GetNotifications(ctx, userID, fetchLimit)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// Owner changed or container closed while the fetch was in flight.
		return
	}
	c.loading = false
	if err != nil {
		log.Printf("Failed to refresh notifications: %v", err)
		return
	}
	c.records = records
}

// Toggle flips the open flag. Opening with unread records present marks
// everything read locally first; one bulk update trails behind without
// blocking the caller.
func (c *Container) Toggle() {
	c.mu.Lock()
	c.open = !c.open
	if !c.open {
		c.mu.Unlock()
		return
	}
	userID := c.userID
	unread := false
	for i := range c.records {
		if !c.records[i].Read {
			c.records[i].Read = true
			unread = true
		}
	}
	c.mu.Unlock()

	if !unread || userID == 0 {
		return
	}
	go func() {
		if err := c.backend.MarkAllNotificationsRead(context.Background(), userID); err != nil {
			// No rollback; the next refresh reconciles.
			log.Printf("Failed to mark all notifications read: %v", err)
		}
	}()
}

// MarkRead flips one record's read flag locally, then persists.
func (c *Container) MarkRead(id int) {
	c.mu.Lock()
	userID := c.userID
	for i := range c.records {
		if c.records[i].ID == id {
			c.records[i].Read = true
			break
		}
	}
	c.mu.Unlock()

	if userID == 0 {
		return
	}
	go func() {
		if err := c.backend.MarkNotificationRead(context.Background(), userID, id); err != nil {
			log.Printf("Failed to mark notification %d read: %v", id, err)
		}
	}()
}

// Delete removes one record from the list locally, then persists.
func (c *Container) Delete(id int) {
	c.mu.Lock()
	userID := c.userID
	for i := range c.records {
		if c.records[i].ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	if userID == 0 {
		return
	}
	go func() {
		if err := c.backend.DeleteNotification(context.Background(), userID, id); err != nil {
			log.Printf("Failed to delete notification %d: %v", id, err)
		}
	}()
}

// ClearAll empties the list and issues one bulk delete. A clear already in
// flight, or an already-empty list, makes it a no-op.
func (c *Container) ClearAll() {
	c.mu.Lock()
	if c.clearing || len(c.records) == 0 || c.userID == 0 {
		c.mu.Unlock()
		return
	}
	c.clearing = true
	userID := c.userID
	c.records = nil
	c.mu.Unlock()

	go func() {
		if err := c.backend.DeleteAllNotifications(context.Background(), userID); err != nil {
			log.Printf("Failed to clear notifications: %v", err)
		}
		c.mu.Lock()
		c.clearing = false
		c.mu.Unlock()
	}()
}

// Unread recomputes the badge count from the list; it is never cached.
func (c *Container) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if !r.Read {
			n++
		}
	}
	return n
}

// Records returns a copy of the in-memory list, newest first.
func (c *Container) Records() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Notification, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Container) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Container) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Container) Clearing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearing
}
