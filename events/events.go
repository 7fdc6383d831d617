package events

import (
	"context"
	"sync"

	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeUserRegistered EventType = "user_registered"
	EventTypeRoundOpened    EventType = "round_opened"
	EventTypeBetPlaced      EventType = "bet_placed"
	EventTypeBetsCancelled  EventType = "bets_cancelled"
	EventTypeRoundSettled   EventType = "round_settled"
)

// AllEventTypes lists every event type emitted by the services
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeUserRegistered,
	EventTypeRoundOpened,
	EventTypeBetPlaced,
	EventTypeBetsCancelled,
	EventTypeRoundSettled,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a committed balance change
type BalanceChangeEvent struct {
	DiscordID       int64                  `json:"discord_id"`
	ActorID         int64                  `json:"actor_id"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                  `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserRegisteredEvent represents a new player account
type UserRegisteredEvent struct {
	DiscordID      int64       `json:"discord_id"`
	Username       string      `json:"username"`
	Role           models.Role `json:"role"`
	InitialBalance int64       `json:"initial_balance"`
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// RoundOpenedEvent represents a round starting to accept bets
type RoundOpenedEvent struct {
	RoundID  string `json:"round_id"`
	OpenedBy int64  `json:"opened_by"`
}

func (e RoundOpenedEvent) Type() EventType {
	return EventTypeRoundOpened
}

// BetPlacedEvent represents a single accepted bet
type BetPlacedEvent struct {
	BetID     int64              `json:"bet_id"`
	RoundID   string             `json:"round_id"`
	DiscordID int64              `json:"discord_id"`
	Category  models.BetCategory `json:"category"`
	Value     string             `json:"value,omitempty"`
	Stake     int64              `json:"stake"`
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// BetsCancelledEvent represents bets withdrawn from an open round
type BetsCancelledEvent struct {
	RoundID   string  `json:"round_id"`
	DiscordID int64   `json:"discord_id"`
	BetIDs    []int64 `json:"bet_ids"`
	Refund    int64   `json:"refund"`
}

func (e BetsCancelledEvent) Type() EventType {
	return EventTypeBetsCancelled
}

// RoundSettledEvent represents a round whose bets have all been resolved
type RoundSettledEvent struct {
	RoundID     string         `json:"round_id"`
	Outcome     models.Outcome `json:"outcome"`
	BetCount    int            `json:"bet_count"`
	WinnerCount int            `json:"winner_count"`
	TotalStaked int64          `json:"total_staked"`
	TotalPayout int64          `json:"total_payout"`
}

func (e RoundSettledEvent) Type() EventType {
	return EventTypeRoundSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never holds up a committed operation
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush emits pending events; called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	// Handlers outlive the request that committed the transaction
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Discard drops pending events; called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
