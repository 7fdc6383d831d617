package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"sicbo/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionalBusFlushDeliversToBus(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			received <- balanceEvent
		}
	})

	testEvent := BalanceChangeEvent{
		DiscordID:       123456,
		OldBalance:      10000,
		NewBalance:      8000,
		TransactionType: models.TransactionTypeBet,
		ChangeAmount:    -2000,
	}
	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	require.NoError(t, transactionalBus.Flush(context.Background()))
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case got := <-received:
		assert.Equal(t, testEvent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan bool, 1)
	mainBus.Subscribe(EventTypeRoundSettled, func(ctx context.Context, event Event) {
		received <- true
	})

	transactionalBus.Publish(RoundSettledEvent{RoundID: "20250101001"})
	transactionalBus.Discard()
	require.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case <-received:
		t.Fatal("discarded event was delivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeAllReceivesEveryType(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var wg sync.WaitGroup
	seen := make(map[EventType]bool)
	wg.Add(3)
	bus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		seen[event.Type()] = true
		mu.Unlock()
	})

	bus.Emit(context.Background(), RoundOpenedEvent{RoundID: "20250101001"})
	bus.Emit(context.Background(), BetPlacedEvent{BetID: 1, Stake: 1000})
	bus.Emit(context.Background(), BetsCancelledEvent{BetIDs: []int64{1}, Refund: 1000})
	wg.Wait()

	assert.True(t, seen[EventTypeRoundOpened])
	assert.True(t, seen[EventTypeBetPlaced])
	assert.True(t, seen[EventTypeBetsCancelled])
}

func TestEmitRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeBetPlaced, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), BetPlacedEvent{BetID: 7})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler did not run")
	}
}
