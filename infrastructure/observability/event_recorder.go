package observability

import (
	"context"

	"sicbo/events"
)

// AttachEventRecorder counts committed game events on the bus
func AttachEventRecorder(bus *events.Bus, mp *MetricsProvider) {
	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BetPlacedEvent); ok {
			mp.RecordBetPlaced(string(e.Category), e.Stake)
		}
	})
	bus.Subscribe(events.EventTypeBetsCancelled, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BetsCancelledEvent); ok {
			mp.RecordBetsCancelled(len(e.BetIDs))
		}
	})
	bus.Subscribe(events.EventTypeRoundOpened, func(ctx context.Context, event events.Event) {
		mp.RecordRoundOpened()
	})
	bus.Subscribe(events.EventTypeRoundSettled, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.RoundSettledEvent); ok {
			mp.RecordRoundSettled(e.Outcome.IsTriple(), e.TotalPayout)
		}
	})
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BalanceChangeEvent); ok {
			mp.RecordBalanceTransaction(string(e.TransactionType))
		}
	})
}
