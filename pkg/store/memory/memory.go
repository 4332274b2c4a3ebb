// Package memory implements the store capability interface in process.
// A Backend owns a single shared document tree; every participating client
// gets its own handle with independent on-disconnect registrations and
// connectivity state, so tests can run multiple clients against one tree
// and simulate transport drops.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dawei41468/CardGameApp/pkg/store"
)

const subscriptionBufferSize = 256

// Backend is the shared document tree.
type Backend struct {
	mu      sync.Mutex
	root    map[string]interface{}
	subs    map[int]*subscription
	nextSub int
}

// NewBackend creates an empty shared tree.
func NewBackend() *Backend {
	return &Backend{
		root: make(map[string]interface{}),
		subs: make(map[int]*subscription),
	}
}

// NewClient returns a connected client handle onto the shared tree.
func (b *Backend) NewClient() *Client {
	return &Client{
		backend:   b,
		connected: true,
	}
}

// Snapshot returns a point-in-time copy of the subtree at path.
func (b *Backend) Snapshot(path string) store.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return store.NewSnapshot(deepCopy(getNode(b.root, splitPath(path))))
}

// set replaces the subtree at one path and notifies subscribers.
func (b *Backend) set(path string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	setNode(b.root, splitPath(path), deepCopy(value))
	b.notifyLocked(splitPath(path))
}

// update applies a multi-path write atomically under a single lock hold,
// so subscribers never observe a partial update.
func (b *Backend) update(base string, values map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	baseParts := splitPath(base)
	for rel, value := range values {
		setNode(b.root, append(append([]string{}, baseParts...), splitPath(rel)...), deepCopy(value))
	}
	b.notifyLocked(baseParts)
}

func (b *Backend) subscribe(path string, onChange func(store.Snapshot), onError func(error)) *subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{
		backend:  b,
		id:       b.nextSub,
		path:     splitPath(path),
		onChange: onChange,
		onError:  onError,
		ch:       make(chan store.Snapshot, subscriptionBufferSize),
		done:     make(chan struct{}),
	}
	b.nextSub++
	b.subs[sub.id] = sub
	go sub.run()

	// Initial snapshot, matching value-listener semantics.
	sub.deliverLocked(store.NewSnapshot(deepCopy(getNode(b.root, sub.path))))
	return sub
}

// notifyLocked delivers fresh snapshots to every subscription whose subtree
// intersects the written path. Delivery order follows commit order because
// snapshots are enqueued while the tree lock is held.
func (b *Backend) notifyLocked(written []string) {
	for _, sub := range b.subs {
		if !pathsIntersect(sub.path, written) {
			continue
		}
		sub.deliverLocked(store.NewSnapshot(deepCopy(getNode(b.root, sub.path))))
	}
}

type subscription struct {
	backend  *Backend
	id       int
	path     []string
	onChange func(store.Snapshot)
	onError  func(error)
	ch       chan store.Snapshot
	done     chan struct{}
	once     sync.Once
}

func (s *subscription) deliverLocked(snap store.Snapshot) {
	select {
	case s.ch <- snap:
	default:
		// Listener is too far behind; surface a terminal error.
		if s.onError != nil {
			go s.onError(fmt.Errorf("subscription buffer overflow at %s", strings.Join(s.path, "/")))
		}
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case snap := <-s.ch:
			s.onChange(snap)
		}
	}
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.backend.mu.Lock()
		delete(s.backend.subs, s.id)
		s.backend.mu.Unlock()
		close(s.done)
	})
}

// Client is one participant's handle onto the shared tree.
type Client struct {
	backend *Backend

	mu           sync.Mutex
	connected    bool
	onDisconnect []string
	watchers     []chan bool
}

var _ store.Store = (*Client)(nil)

func (c *Client) Get(ctx context.Context, path string) (store.Snapshot, error) {
	if err := c.checkConnected(ctx); err != nil {
		return store.Snapshot{}, err
	}
	return c.backend.Snapshot(path), nil
}

func (c *Client) Set(ctx context.Context, path string, value interface{}) error {
	if err := c.checkConnected(ctx); err != nil {
		return err
	}
	c.backend.set(path, value)
	return nil
}

func (c *Client) Update(ctx context.Context, path string, values map[string]interface{}) error {
	if err := c.checkConnected(ctx); err != nil {
		return err
	}
	c.backend.update(path, values)
	return nil
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Set(ctx, path, nil)
}

func (c *Client) Subscribe(ctx context.Context, path string, onChange func(store.Snapshot), onError func(error)) (store.Subscription, error) {
	if err := c.checkConnected(ctx); err != nil {
		return nil, err
	}
	return c.backend.subscribe(path, onChange, onError), nil
}

func (c *Client) RegisterOnDisconnect(ctx context.Context, path string) error {
	if err := c.checkConnected(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = append(c.onDisconnect, path)
	return nil
}

func (c *Client) UnregisterOnDisconnect(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.onDisconnect {
		if p == path {
			c.onDisconnect = append(c.onDisconnect[:i], c.onDisconnect[i+1:]...)
			break
		}
	}
	return nil
}

func (c *Client) Connectivity(ctx context.Context) (<-chan bool, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan bool, 16)
	ch <- c.connected
	c.watchers = append(c.watchers, ch)

	// cancel closes the channel so a blocked receiver observes the end of
	// the watch. Removal under the lock keeps the close from racing a send.
	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, w := range c.watchers {
			if w == ch {
				c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
				close(ch)
				break
			}
		}
	}
	return ch, cancel, nil
}

// SetConnected simulates a transport connectivity transition. Dropping the
// connection executes this client's on-disconnect deletions against the
// shared tree, mirroring the store-enforced cleanup of the real transport.
func (c *Client) SetConnected(connected bool) {
	c.mu.Lock()
	if c.connected == connected {
		c.mu.Unlock()
		return
	}
	c.connected = connected
	var pending []string
	if !connected {
		pending = c.onDisconnect
		c.onDisconnect = nil
	}
	c.mu.Unlock()

	for _, path := range pending {
		c.backend.set(path, nil)
	}

	// Sends happen under the lock so a concurrent cancel cannot close a
	// channel mid-send.
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range c.watchers {
		select {
		case w <- connected:
		default:
		}
	}
}

func (c *Client) checkConnected(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return fmt.Errorf("client is disconnected")
	}
	return nil
}
