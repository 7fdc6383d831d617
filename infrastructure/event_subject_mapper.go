package infrastructure

import (
	"fmt"

	"sicbo/events"
)

var subjectsByEventType = map[events.EventType]string{
	events.EventTypeBalanceChange:  "sicbo.users.balance_changed",
	events.EventTypeUserRegistered: "sicbo.users.registered",
	events.EventTypeRoundOpened:    "sicbo.rounds.opened",
	events.EventTypeRoundSettled:   "sicbo.rounds.settled",
	events.EventTypeBetPlaced:      "sicbo.bets.placed",
	events.EventTypeBetsCancelled:  "sicbo.bets.cancelled",
}

// EventSubjectMapper handles mapping between game events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts an event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByEventType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("sicbo.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByEventType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns every subject this service publishes to, in event type order
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, eventType := range events.AllEventTypes {
		if subject, ok := subjectsByEventType[eventType]; ok {
			subjects = append(subjects, subject)
		}
	}
	return subjects
}
