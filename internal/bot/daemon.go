package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/influenta/switchboard/internal/transport"
)

// Daemon owns the event loop: it connects the adapter, pulls inbound
// events and dispatches them to the router. Events from different users run
// concurrently; events from the same user are serialized so a slow AI call
// can't interleave with that user's next message.
type Daemon struct {
	adapter transport.Adapter
	router  *Router
	digest  *Digest // optional

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
	wg      sync.WaitGroup
}

// DaemonOpts holds parameters for creating a Daemon.
type DaemonOpts struct {
	Adapter transport.Adapter
	Router  *Router
	Digest  *Digest // optional
}

// NewDaemon creates a Daemon.
func NewDaemon(opts DaemonOpts) (*Daemon, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("bot: daemon: adapter is required")
	}
	if opts.Router == nil {
		return nil, fmt.Errorf("bot: daemon: router is required")
	}
	return &Daemon{
		adapter: opts.Adapter,
		router:  opts.Router,
		digest:  opts.Digest,
		locks:   make(map[int64]*sync.Mutex),
	}, nil
}

// Run connects and processes events until ctx is cancelled or the adapter
// closes its event channel. In-flight handlers are drained before return.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.adapter.Connect(ctx); err != nil {
		return fmt.Errorf("bot: daemon: connect: %w", err)
	}
	events, err := d.adapter.Listen(ctx)
	if err != nil {
		return fmt.Errorf("bot: daemon: listen: %w", err)
	}

	if d.digest != nil {
		go d.digest.Run(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return nil
		case ev, ok := <-events:
			if !ok {
				d.wg.Wait()
				return nil
			}
			d.wg.Add(1)
			go func(ev transport.Event) {
				defer d.wg.Done()
				mu := d.userLock(ev.UserID)
				mu.Lock()
				defer mu.Unlock()
				d.router.Handle(ctx, ev)
			}(ev)
		}
	}
}

// userLock returns the per-user mutex, creating it on first contact.
func (d *Daemon) userLock(userID int64) *sync.Mutex {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	mu, ok := d.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		d.locks[userID] = mu
	}
	return mu
}
