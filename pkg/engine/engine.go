// Package engine implements the game state-transition operations. Every
// operation follows the same protocol: fetch a fresh snapshot of the
// relevant subtrees, validate preconditions against it, compute the full
// new value for every touched subtree, and issue one atomic multi-path
// write. There is no optimistic-concurrency token; a concurrent write from
// another client between the read and the write wins or loses wholesale
// per the store's last-write-wins model.
package engine

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dawei41468/CardGameApp/pkg/cards"
	"github.com/dawei41468/CardGameApp/pkg/rooms"
	"github.com/dawei41468/CardGameApp/pkg/store"
)

const createRoomMaxAttempts = 8

var roomCodePattern = regexp.MustCompile(`^\d{4}$`)

type Engine struct {
	store    store.Store
	resolver cards.ResourceResolver
	now      func() time.Time

	randMu sync.Mutex
	rand   *rand.Rand
}

type NewEngineOptions struct {
	Store    store.Store
	Resolver cards.ResourceResolver
	// Rand is the shuffle source. Defaults to a time-seeded source.
	Rand *rand.Rand
	// Now is the clock used for lastActive/lastUpdated stamps. Defaults to
	// time.Now.
	Now func() time.Time
}

func NewEngine(opts NewEngineOptions) *Engine {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = cards.StandardResolver()
	}
	r := opts.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:    opts.Store,
		resolver: resolver,
		rand:     r,
		now:      now,
	}
}

// Resolver returns the resource resolver operations decode with.
func (e *Engine) Resolver() cards.ResourceResolver {
	return e.resolver
}

// ValidRoomCode reports whether code is a well-formed 4-digit room code.
func ValidRoomCode(code string) bool {
	return roomCodePattern.MatchString(code)
}

func (e *Engine) nowMillis() int64 {
	return e.now().UnixMilli()
}

// stamp adds the activity timestamps every mutating operation carries.
func (e *Engine) stamp(values map[string]interface{}) map[string]interface{} {
	now := e.nowMillis()
	values[rooms.PathLastActive] = now
	values[rooms.PathLastUpdated] = now
	return values
}

func (e *Engine) shuffled(in []cards.Card) []cards.Card {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return cards.Shuffle(in, e.rand)
}

func (e *Engine) generateDeck(settings cards.RoomSettings) []cards.Card {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return cards.GenerateDeck(settings, e.resolver, e.rand)
}

func (e *Engine) randomCode() string {
	e.randMu.Lock()
	defer e.randMu.Unlock()
	digits := 1000 + e.rand.Intn(9000)
	return itoa4(digits)
}

func itoa4(n int) string {
	buf := [4]byte{}
	for i := 3; i >= 0; i-- {
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[:])
}

// getRoom reads a fresh snapshot of the room subtree.
func (e *Engine) getRoom(ctx context.Context, op, code string) (store.Snapshot, error) {
	snap, err := e.store.Get(ctx, code)
	if err != nil {
		return store.Snapshot{}, &StoreError{Op: op, Err: err}
	}
	return snap, nil
}

// decodeHand reads a player's current hand out of a room snapshot.
func (e *Engine) decodeHand(snap store.Snapshot, player string) []cards.Card {
	return rooms.DecodeCards(snap.Child(rooms.HandPath(player)), e.resolver)
}

// removeByID returns hand minus the cards whose IDs appear in toRemove,
// along with the IDs that were not found in the hand.
func removeByID(hand, toRemove []cards.Card) (remaining []cards.Card, missing []string) {
	removeSet := make(map[string]bool, len(toRemove))
	for _, c := range toRemove {
		removeSet[c.ID] = true
	}
	remaining = make([]cards.Card, 0, len(hand))
	found := make(map[string]bool, len(toRemove))
	for _, c := range hand {
		if removeSet[c.ID] {
			found[c.ID] = true
			continue
		}
		remaining = append(remaining, c)
	}
	for _, c := range toRemove {
		if !found[c.ID] {
			missing = append(missing, c.ID)
		}
	}
	return remaining, missing
}

// duplicateID reports whether any card ID appears more than once in the
// selection. Hands never hold two cards with the same instance ID, so a
// duplicated selection is always a malformed request.
func duplicateID(in []cards.Card) bool {
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		if seen[c.ID] {
			return true
		}
		seen[c.ID] = true
	}
	return false
}

func idsEqual(a, b []cards.Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func sameIDMultiset(a, b []cards.Card) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, c := range a {
		counts[c.ID]++
	}
	for _, c := range b {
		counts[c.ID]--
		if counts[c.ID] < 0 {
			return false
		}
	}
	return true
}

// TrimName normalizes a player name: surrounding whitespace is trimmed and
// nothing else, so identity stays case-sensitive.
func TrimName(name string) string {
	return strings.TrimSpace(name)
}
