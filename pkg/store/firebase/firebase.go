// Package firebase backs the store capability interface with the Firebase
// Realtime Database via the Admin SDK. The Admin SDK has no streaming
// listener and no onDisconnect primitive, so subscriptions are interval
// pollers that suppress unchanged snapshots, and on-disconnect cleanups are
// executed best effort when the client closes.
package firebase

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/db"
	"google.golang.org/api/option"

	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/store"
)

const (
	// DefaultPollInterval is how often subscriptions re-read their subtree.
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultProbeInterval is how often connectivity is probed.
	DefaultProbeInterval = 5 * time.Second

	maxConsecutivePollErrors = 5
)

type Store struct {
	client        *db.Client
	pollInterval  time.Duration
	probeInterval time.Duration

	mu           sync.Mutex
	onDisconnect []string
	closed       bool
}

var _ store.Store = (*Store)(nil)

type NewStoreOptions struct {
	DatabaseURL     string
	CredentialsFile string
	PollInterval    time.Duration
	ProbeInterval   time.Duration
}

// NewStore creates a store client bound to a Firebase Realtime Database.
func NewStore(ctx context.Context, opts NewStoreOptions) (*Store, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: opts.DatabaseURL}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get database client: %w", err)
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	probeInterval := opts.ProbeInterval
	if probeInterval <= 0 {
		probeInterval = DefaultProbeInterval
	}

	return &Store{
		client:        client,
		pollInterval:  pollInterval,
		probeInterval: probeInterval,
	}, nil
}

func (s *Store) Get(ctx context.Context, path string) (store.Snapshot, error) {
	var value interface{}
	if err := s.client.NewRef(path).Get(ctx, &value); err != nil {
		return store.Snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return store.NewSnapshot(value), nil
}

func (s *Store) Set(ctx context.Context, path string, value interface{}) error {
	ref := s.client.NewRef(path)
	if value == nil {
		if err := ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
		return nil
	}
	if err := ref.Set(ctx, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path string, values map[string]interface{}) error {
	if err := s.client.NewRef(path).Update(ctx, values); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.client.NewRef(path).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, path string, onChange func(store.Snapshot), onError func(error)) (store.Subscription, error) {
	sub := &pollSubscription{
		store:    s,
		path:     path,
		onChange: onChange,
		onError:  onError,
		done:     make(chan struct{}),
	}
	go sub.run(ctx)
	return sub, nil
}

// RegisterOnDisconnect records a path to remove when the client closes.
// The Admin SDK cannot install server-side onDisconnect actions, so this is
// a best-effort client-side cleanup; ungraceful termination leaves the
// entry to the stale-room sweeper.
func (s *Store) RegisterOnDisconnect(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = append(s.onDisconnect, path)
	return nil
}

// UnregisterOnDisconnect withdraws a pending cleanup for path.
func (s *Store) UnregisterOnDisconnect(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.onDisconnect {
		if p == path {
			s.onDisconnect = append(s.onDisconnect[:i], s.onDisconnect[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Connectivity(ctx context.Context) (<-chan bool, func(), error) {
	ch := make(chan bool, 16)
	probeCtx, cancel := context.WithCancel(ctx)
	go s.probeLoop(probeCtx, ch)
	return ch, cancel, nil
}

// Close executes pending on-disconnect cleanups.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	pending := s.onDisconnect
	s.onDisconnect = nil
	s.closed = true
	s.mu.Unlock()

	var firstErr error
	for _, path := range pending {
		if err := s.client.NewRef(path).Delete(ctx); err != nil {
			log.Warn("Failed to run disconnect cleanup for %s: %v", path, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

type pollSubscription struct {
	store    *Store
	path     string
	onChange func(store.Snapshot)
	onError  func(error)
	done     chan struct{}
	once     sync.Once
}

func (p *pollSubscription) run(ctx context.Context) {
	ticker := time.NewTicker(p.store.pollInterval)
	defer ticker.Stop()

	var last interface{}
	first := true
	errCount := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
		}

		var value interface{}
		if err := p.store.client.NewRef(p.path).Get(ctx, &value); err != nil {
			errCount++
			log.Debug("Poll of %s failed (%d consecutive): %v", p.path, errCount, err)
			if errCount >= maxConsecutivePollErrors {
				if p.onError != nil {
					p.onError(fmt.Errorf("subscription to %s failed: %w", p.path, err))
				}
				return
			}
			continue
		}
		errCount = 0

		if first || !reflect.DeepEqual(last, value) {
			first = false
			last = value
			p.onChange(store.NewSnapshot(value))
		}
	}
}

func (p *pollSubscription) Unsubscribe() {
	p.once.Do(func() {
		close(p.done)
	})
}

// probeLoop reads a tiny path on an interval and reports transitions. It
// closes ch on return so receivers observe the end of the watch.
func (s *Store) probeLoop(ctx context.Context, ch chan<- bool) {
	defer close(ch)
	ticker := time.NewTicker(s.probeInterval)
	defer ticker.Stop()

	connected := true
	ch <- connected

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		probeCtx, cancel := context.WithTimeout(ctx, s.probeInterval)
		var value interface{}
		err := s.client.NewRef(".probe").Get(probeCtx, &value)
		cancel()

		now := err == nil
		if now != connected {
			connected = now
			select {
			case ch <- connected:
			default:
			}
		}
	}
}
