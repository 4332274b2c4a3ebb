// Package view derives client-visible state from raw room snapshots. A
// Projector owns the room subscription for the lifetime of "being in a
// room": it debounces bursts of change notifications down to the latest
// snapshot, re-derives the full view state from each processed snapshot,
// and heals the room's host entry when the current host has dropped out.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/engine"
	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/store"
)

const (
	// DefaultDebounce is the quiet period after a change notification
	// before the snapshot is processed. A burst of writes inside the
	// window collapses into a single refresh of the latest snapshot.
	DefaultDebounce = 200 * time.Millisecond

	updatesBufferSize = 64
)

type Projector struct {
	store      store.Store
	engine     *engine.Engine
	roomCode   string
	playerName string
	debounce   time.Duration

	mu         sync.Mutex
	active     bool
	current    State
	pending    store.Snapshot
	hasPending bool
	timer      *time.Timer
	sub        store.Subscription

	updates chan State
	errs    chan error
}

type NewProjectorOptions struct {
	Store      store.Store
	Engine     *engine.Engine
	RoomCode   string
	PlayerName string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
}

func NewProjector(opts NewProjectorOptions) *Projector {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Projector{
		store:      opts.Store,
		engine:     opts.Engine,
		roomCode:   opts.RoomCode,
		playerName: opts.PlayerName,
		debounce:   debounce,
		current: State{
			RoomCode:   opts.RoomCode,
			PlayerName: opts.PlayerName,
		},
		updates: make(chan State, updatesBufferSize),
		errs:    make(chan error, 1),
	}
}

// Start subscribes to the room subtree. Calling Start on a started
// projector re-subscribes, which is how reconnection re-attaches.
func (p *Projector) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.sub != nil {
		p.sub.Unsubscribe()
		p.sub = nil
	}
	p.active = true
	p.mu.Unlock()

	sub, err := p.store.Subscribe(ctx, p.roomCode, p.onChange, p.onSubscriptionError)
	if err != nil {
		p.mu.Lock()
		p.active = false
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.sub = sub
	p.mu.Unlock()
	return nil
}

// Stop tears down the subscription deterministically. A pending debounced
// snapshot is discarded.
func (p *Projector) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
	if p.sub != nil {
		p.sub.Unsubscribe()
		p.sub = nil
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.hasPending = false
}

// State returns the most recently derived view state.
func (p *Projector) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Updates streams every processed view state. The channel is buffered;
// when a consumer falls behind, the oldest update is dropped in favor of
// the newest.
func (p *Projector) Updates() <-chan State {
	return p.updates
}

// Errors surfaces terminal subscription failures.
func (p *Projector) Errors() <-chan error {
	return p.errs
}

// onChange records the latest snapshot and (re)arms the debounce timer.
// Only the newest snapshot of a burst is ever processed; intermediate
// ones are superseded before the timer fires.
func (p *Projector) onChange(snap store.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.pending = snap
	p.hasPending = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, p.process)
}

func (p *Projector) process() {
	p.mu.Lock()
	if !p.hasPending {
		p.mu.Unlock()
		return
	}
	snap := p.pending
	p.hasPending = false

	next := Reduce(p.current, snap, p.engine.Resolver())
	p.current = next
	p.mu.Unlock()

	if next.BecameHost {
		log.Info("%s promoted to host of room %s", p.playerName, p.roomCode)
	}

	// Heal the host entry when the recorded host has left the room. The
	// write re-triggers the subscription, so every client converges on
	// the same elected host.
	if next.RoomExists && NeedsHostHeal(next.Host, next.Players) {
		newHost := ElectHost(next.Players)
		go func() {
			if err := p.engine.SetHost(context.Background(), p.roomCode, newHost); err != nil {
				log.Error("Failed to reassign host of room %s: %v", p.roomCode, err)
				return
			}
			log.Info("Host of room %s reassigned to %s after %s disconnected", p.roomCode, newHost, next.Host)
		}()
	}

	p.emit(next)
}

func (p *Projector) emit(next State) {
	for {
		select {
		case p.updates <- next:
			return
		default:
			select {
			case <-p.updates:
			default:
			}
		}
	}
}

func (p *Projector) onSubscriptionError(err error) {
	log.Error("Room subscription error for %s: %v", p.roomCode, err)
	select {
	case p.errs <- err:
	default:
	}
}
