package engine

import (
	"context"

	"github.com/dawei41468/CardGameApp/pkg/cards"
	"github.com/dawei41468/CardGameApp/pkg/log"
	"github.com/dawei41468/CardGameApp/pkg/rooms"
)

// CreateRoom allocates a fresh 4-digit room code, initializes the room
// document, and kicks off a best-effort sweep of stale rooms. Allocation
// retries on code collision up to a fixed bound.
func (e *Engine) CreateRoom(ctx context.Context, settings cards.RoomSettings, hostName string) (string, error) {
	host := TrimName(hostName)
	if host == "" {
		return "", &InvalidArgumentError{Reason: "host name must not be blank"}
	}

	for attempt := 0; attempt < createRoomMaxAttempts; attempt++ {
		code := e.randomCode()
		snap, err := e.getRoom(ctx, "create room", code)
		if err != nil {
			return "", err
		}
		if snap.Exists() {
			log.Debug("Room code %s already taken, retrying (attempt %d)", code, attempt+1)
			continue
		}

		if err := e.store.Update(ctx, code, rooms.NewRoomValues(settings, host, e.nowMillis())); err != nil {
			return "", &StoreError{Op: "create room", Err: err}
		}

		go func() {
			if _, err := e.CleanupStaleRooms(context.Background(), CleanupOptions{
				Threshold: StaleActiveThreshold,
				Field:     rooms.PathLastActive,
				Exclude:   code,
			}); err != nil {
				log.Warn("Stale room sweep after create failed: %v", err)
			}
		}()

		log.Info("Room created: %s by %s with %d decks", code, host, settings.NumDecks)
		return code, nil
	}

	return "", &InvalidStateError{Reason: "could not allocate a free room code"}
}

// JoinRoom adds the player to the room's presence map. It returns false
// without error when the room is full or the name is already taken.
func (e *Engine) JoinRoom(ctx context.Context, code, playerName string) (bool, error) {
	name := TrimName(playerName)
	if name == "" {
		return false, &InvalidArgumentError{Reason: "player name must not be blank"}
	}
	if !ValidRoomCode(code) {
		return false, &InvalidArgumentError{Reason: "room code must be a 4-digit number"}
	}

	snap, err := e.getRoom(ctx, "join room", code)
	if err != nil {
		return false, err
	}
	if !snap.Exists() {
		return false, &NotFoundError{Code: code}
	}
	players := snap.Child(rooms.PathPlayers)
	if players.ChildCount() >= rooms.MaxPlayers {
		return false, nil
	}
	if players.HasChild(name) {
		return false, nil
	}

	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.PlayerPath(name): rooms.EncodePlayerEntry(false),
	}))
	if err != nil {
		return false, &StoreError{Op: "join room", Err: err}
	}
	log.Info("Player %s joined room %s", name, code)
	return true, nil
}

// StartGame generates a deck per the room settings, deals dealCount cards
// to each player in list order, and writes the started game state in one
// atomic update. A non-positive numDecks falls back to the room's stored
// settings.
func (e *Engine) StartGame(ctx context.Context, code string, players []string, dealCount, numDecks int) error {
	snap, err := e.getRoom(ctx, "start game", code)
	if err != nil {
		return err
	}
	if !snap.Exists() {
		return &NotFoundError{Code: code}
	}

	stored, _ := rooms.DecodeSettings(snap.Child(rooms.PathSettings))
	effective := cards.RoomSettings{
		NumDecks:      numDecks,
		IncludeJokers: stored.IncludeJokers,
		DealCount:     dealCount,
	}
	if effective.NumDecks <= 0 {
		effective.NumDecks = stored.NumDecks
	}
	if effective.NumDecks <= 0 {
		effective.NumDecks = 1
	}

	deck := e.generateDeck(effective)
	need := dealCount * len(players)
	if len(deck) < need {
		return &InsufficientCardsError{Have: len(deck), Need: need}
	}

	hands := make(map[string]interface{}, len(players))
	for _, player := range players {
		hands[player] = rooms.EncodeCards(deck[:dealCount])
		deck = deck[dealCount:]
	}

	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.PathState: rooms.StateStarted,
		rooms.PathGameData: map[string]interface{}{
			"deck":        rooms.EncodeCards(deck),
			"playerHands": hands,
			"table":       map[string]interface{}{"piles": []interface{}{}},
			"discardPile": []interface{}{},
			"lastPlayed":  map[string]interface{}{},
		},
	}))
	if err != nil {
		return &StoreError{Op: "start game", Err: err}
	}
	log.Info("Game started in %s: %d players, %d cards each, %d decks", code, len(players), dealCount, effective.NumDecks)
	return nil
}

// PlayCards removes the selected cards from the player's hand and appends
// them to the table as a new pile, recording the play for recall.
func (e *Engine) PlayCards(ctx context.Context, code, player string, toPlay []cards.Card) error {
	if len(toPlay) == 0 {
		return &InvalidArgumentError{Reason: "no cards selected to play"}
	}
	if duplicateID(toPlay) {
		return &InvalidArgumentError{Reason: "the same card was selected more than once"}
	}

	snap, err := e.getRoom(ctx, "play cards", code)
	if err != nil {
		return err
	}
	hand := e.decodeHand(snap, player)
	newHand, missing := removeByID(hand, toPlay)
	if len(missing) > 0 {
		return &InvalidArgumentError{Reason: "selected cards are no longer in your hand"}
	}
	piles := rooms.DecodePiles(snap.Child(rooms.PathTablePiles), e.resolver)

	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.HandPath(player): rooms.EncodeCards(newHand),
		rooms.PathTablePiles:   rooms.EncodePiles(append(piles, toPlay)),
		rooms.PathLastPlayed:   rooms.EncodeLastPlayed(rooms.LastPlayed{Player: player, Hand: toPlay}),
	}))
	if err != nil {
		return &StoreError{Op: "play cards", Err: err}
	}
	log.Debug("%s played %d cards in %s", player, len(toPlay), code)
	return nil
}

// DiscardCards removes the selected cards from the player's hand and
// appends them to the end of the discard pile.
func (e *Engine) DiscardCards(ctx context.Context, code, player string, toDiscard []cards.Card) error {
	if len(toDiscard) == 0 {
		return &InvalidArgumentError{Reason: "no cards selected to discard"}
	}
	if duplicateID(toDiscard) {
		return &InvalidArgumentError{Reason: "the same card was selected more than once"}
	}

	snap, err := e.getRoom(ctx, "discard cards", code)
	if err != nil {
		return err
	}
	hand := e.decodeHand(snap, player)
	newHand, missing := removeByID(hand, toDiscard)
	if len(missing) > 0 {
		return &InvalidArgumentError{Reason: "selected cards are no longer in your hand"}
	}
	discard := rooms.DecodeCards(snap.Child(rooms.PathDiscardPile), e.resolver)

	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.HandPath(player): rooms.EncodeCards(newHand),
		rooms.PathDiscardPile:  rooms.EncodeCards(append(discard, toDiscard...)),
	}))
	if err != nil {
		return &StoreError{Op: "discard cards", Err: err}
	}
	log.Debug("%s discarded %d cards in %s", player, len(toDiscard), code)
	return nil
}

// RecallLastPile returns the player's most recent play from the table to
// their hand. It only succeeds while that play is still the top pile.
func (e *Engine) RecallLastPile(ctx context.Context, code, player string) error {
	snap, err := e.getRoom(ctx, "recall last pile", code)
	if err != nil {
		return err
	}

	lastPlayed := rooms.DecodeLastPlayed(snap.Child(rooms.PathLastPlayed), e.resolver)
	if lastPlayed.Player != player {
		return &InvalidStateError{Reason: "the last play was not yours"}
	}
	piles := rooms.DecodePiles(snap.Child(rooms.PathTablePiles), e.resolver)
	if len(piles) == 0 || !idsEqual(piles[len(piles)-1], lastPlayed.Hand) {
		return &InvalidStateError{Reason: "no valid pile to recall"}
	}

	hand := e.decodeHand(snap, player)
	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.HandPath(player): rooms.EncodeCards(append(hand, lastPlayed.Hand...)),
		rooms.PathTablePiles:   rooms.EncodePiles(piles[:len(piles)-1]),
		rooms.PathLastPlayed:   map[string]interface{}{},
	}))
	if err != nil {
		return &StoreError{Op: "recall last pile", Err: err}
	}
	log.Debug("%s recalled the last played pile in %s", player, code)
	return nil
}

// DrawCard pops the front of the deck into the player's hand and returns
// the drawn card.
func (e *Engine) DrawCard(ctx context.Context, code, player string) (cards.Card, error) {
	snap, err := e.getRoom(ctx, "draw card", code)
	if err != nil {
		return cards.Card{}, err
	}
	deck := rooms.DecodeCards(snap.Child(rooms.PathDeck), e.resolver)
	if len(deck) == 0 {
		return cards.Card{}, &EmptyResourceError{Resource: "deck"}
	}

	drawn := deck[0]
	hand := e.decodeHand(snap, player)
	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.PathDeck:         rooms.EncodeCards(deck[1:]),
		rooms.HandPath(player): rooms.EncodeCards(append(hand, drawn)),
	}))
	if err != nil {
		return cards.Card{}, &StoreError{Op: "draw card", Err: err}
	}
	log.Debug("%s drew %s of %s in %s", player, drawn.Rank, drawn.Suit, code)
	return drawn, nil
}

// DrawFromDiscard pops the top (last) card of the discard pile into the
// player's hand.
func (e *Engine) DrawFromDiscard(ctx context.Context, code, player string) (cards.Card, error) {
	snap, err := e.getRoom(ctx, "draw from discard", code)
	if err != nil {
		return cards.Card{}, err
	}
	discard := rooms.DecodeCards(snap.Child(rooms.PathDiscardPile), e.resolver)
	if len(discard) == 0 {
		return cards.Card{}, &EmptyResourceError{Resource: "discard pile"}
	}

	drawn := discard[len(discard)-1]
	hand := e.decodeHand(snap, player)
	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.PathDiscardPile:  rooms.EncodeCards(discard[:len(discard)-1]),
		rooms.HandPath(player): rooms.EncodeCards(append(hand, drawn)),
	}))
	if err != nil {
		return cards.Card{}, &StoreError{Op: "draw from discard", Err: err}
	}
	log.Debug("%s drew the top discard in %s", player, code)
	return drawn, nil
}

// ShuffleDeck flattens and shuffles all table piles into the remaining
// deck, then shuffles the combined result and clears the table.
func (e *Engine) ShuffleDeck(ctx context.Context, code string) error {
	snap, err := e.getRoom(ctx, "shuffle deck", code)
	if err != nil {
		return err
	}
	piles := rooms.DecodePiles(snap.Child(rooms.PathTablePiles), e.resolver)
	if len(piles) == 0 {
		return &InvalidStateError{Reason: "no cards on the table to shuffle"}
	}
	deck := rooms.DecodeCards(snap.Child(rooms.PathDeck), e.resolver)

	var tableCards []cards.Card
	for _, pile := range piles {
		tableCards = append(tableCards, pile...)
	}
	newDeck := e.shuffled(append(deck, e.shuffled(tableCards)...))

	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.PathDeck:       rooms.EncodeCards(newDeck),
		rooms.PathTablePiles: []interface{}{},
	}))
	if err != nil {
		return &StoreError{Op: "shuffle deck", Err: err}
	}
	log.Debug("Deck in %s shuffled with %d table cards folded in", code, len(tableCards))
	return nil
}

// DealDeck deals count contiguous cards per player in list order, appending
// to each existing hand.
func (e *Engine) DealDeck(ctx context.Context, code string, players []string, count int) error {
	snap, err := e.getRoom(ctx, "deal deck", code)
	if err != nil {
		return err
	}
	deck := rooms.DecodeCards(snap.Child(rooms.PathDeck), e.resolver)
	need := count * len(players)
	if len(deck) < need {
		return &InsufficientCardsError{Have: len(deck), Need: need}
	}

	hands := make(map[string]interface{}, len(players))
	for i, player := range players {
		hand := e.decodeHand(snap, player)
		dealt := deck[i*count : (i+1)*count]
		hands[player] = rooms.EncodeCards(append(hand, dealt...))
	}

	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.PathDeck:        rooms.EncodeCards(deck[need:]),
		rooms.PathPlayerHands: hands,
	}))
	if err != nil {
		return &StoreError{Op: "deal deck", Err: err}
	}
	log.Debug("Dealt %d cards to each of %d players in %s", count, len(players), code)
	return nil
}

// MoveCards transfers the selected cards from one player's hand to
// another's.
func (e *Engine) MoveCards(ctx context.Context, code, fromPlayer, toPlayer string, toMove []cards.Card) error {
	if len(toMove) == 0 {
		return &InvalidArgumentError{Reason: "no cards selected to move"}
	}
	if duplicateID(toMove) {
		return &InvalidArgumentError{Reason: "the same card was selected more than once"}
	}

	snap, err := e.getRoom(ctx, "move cards", code)
	if err != nil {
		return err
	}
	fromHand := e.decodeHand(snap, fromPlayer)
	newFromHand, missing := removeByID(fromHand, toMove)
	if len(missing) > 0 {
		return &InvalidArgumentError{Reason: "selected cards are no longer in your hand"}
	}
	toHand := e.decodeHand(snap, toPlayer)

	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.HandPath(fromPlayer): rooms.EncodeCards(newFromHand),
		rooms.HandPath(toPlayer):   rooms.EncodeCards(append(toHand, toMove...)),
	}))
	if err != nil {
		return &StoreError{Op: "move cards", Err: err}
	}
	log.Debug("%s moved %d cards to %s in %s", fromPlayer, len(toMove), toPlayer, code)
	return nil
}

// SyncHand writes a client-side reordering of the player's own hand back
// to the store. The reordering must be a permutation of the stored hand;
// anything else is rejected so cards cannot be conjured or dropped.
func (e *Engine) SyncHand(ctx context.Context, code, player string, hand []cards.Card) error {
	snap, err := e.getRoom(ctx, "sync hand", code)
	if err != nil {
		return err
	}
	current := e.decodeHand(snap, player)
	if !sameIDMultiset(current, hand) {
		return &InvalidArgumentError{Reason: "hand order is out of date"}
	}

	err = e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.HandPath(player): rooms.EncodeCards(hand),
	}))
	if err != nil {
		return &StoreError{Op: "sync hand", Err: err}
	}
	log.Trace("Hand synced for %s in %s", player, code)
	return nil
}

// SetHost rewrites the room's host. Used by host failover.
func (e *Engine) SetHost(ctx context.Context, code, host string) error {
	err := e.store.Update(ctx, code, map[string]interface{}{
		rooms.PathHost:        host,
		rooms.PathLastUpdated: e.nowMillis(),
	})
	if err != nil {
		return &StoreError{Op: "set host", Err: err}
	}
	return nil
}

// RemovePlayer deletes a player's presence entry.
func (e *Engine) RemovePlayer(ctx context.Context, code, player string) error {
	if err := e.store.Delete(ctx, code+"/"+rooms.PlayerPath(player)); err != nil {
		return &StoreError{Op: "remove player", Err: err}
	}
	return nil
}

// RegisterPlayer writes a player's presence entry directly. Used at room
// creation and on rejoin after reconnect.
func (e *Engine) RegisterPlayer(ctx context.Context, code, player string) error {
	err := e.store.Update(ctx, code, e.stamp(map[string]interface{}{
		rooms.PlayerPath(player): rooms.EncodePlayerEntry(false),
	}))
	if err != nil {
		return &StoreError{Op: "register player", Err: err}
	}
	return nil
}

// DeleteRoom removes the entire room document.
func (e *Engine) DeleteRoom(ctx context.Context, code string) error {
	if err := e.store.Delete(ctx, code); err != nil {
		return &StoreError{Op: "delete room", Err: err}
	}
	log.Info("Room %s deleted", code)
	return nil
}

// GetRoom reads and decodes the room document.
func (e *Engine) GetRoom(ctx context.Context, code string) (rooms.Room, error) {
	snap, err := e.getRoom(ctx, "get room", code)
	if err != nil {
		return rooms.Room{}, err
	}
	room, ok := rooms.DecodeRoom(snap, e.resolver)
	if !ok {
		return rooms.Room{}, &NotFoundError{Code: code}
	}
	return room, nil
}
