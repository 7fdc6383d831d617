package infrastructure

import (
	"testing"

	"sicbo/events"

	"github.com/stretchr/testify/assert"
)

func TestEventSubjectMapper_RoundTrip(t *testing.T) {
	mapper := NewEventSubjectMapper()

	tests := []struct {
		event   events.Event
		subject string
	}{
		{events.BalanceChangeEvent{}, "sicbo.users.balance_changed"},
		{events.UserRegisteredEvent{}, "sicbo.users.registered"},
		{events.RoundOpenedEvent{}, "sicbo.rounds.opened"},
		{events.BetPlacedEvent{}, "sicbo.bets.placed"},
		{events.BetsCancelledEvent{}, "sicbo.bets.cancelled"},
		{events.RoundSettledEvent{}, "sicbo.rounds.settled"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event.Type()), func(t *testing.T) {
			assert.Equal(t, tt.subject, mapper.MapEventToSubject(tt.event))
			assert.Equal(t, tt.event.Type(), mapper.MapSubjectToEventType(tt.subject))
		})
	}
}

func TestEventSubjectMapper_GetAllSubjects(t *testing.T) {
	subjects := NewEventSubjectMapper().GetAllSubjects()

	assert.Len(t, subjects, len(events.AllEventTypes))
	assert.Equal(t, "sicbo.users.balance_changed", subjects[0])
	for _, subject := range subjects {
		assert.NotContains(t, subject, "unknown")
	}
}
