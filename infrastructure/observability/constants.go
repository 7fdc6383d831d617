package observability

// Metric name prefixes
const (
	MetricPrefix = "sicbo"
)

// Metric names
const (
	// Discord metrics
	MessagesReadTotal = MetricPrefix + ".messages.read_total"

	// Game metrics
	BetsPlacedTotal    = MetricPrefix + ".bets.placed_total"
	BetsStakedTotal    = MetricPrefix + ".bets.staked_total"
	BetsCancelledTotal = MetricPrefix + ".bets.cancelled_total"
	RoundsOpenedTotal  = MetricPrefix + ".rounds.opened_total"
	RoundsSettledTotal = MetricPrefix + ".rounds.settled_total"
	PayoutsTotal       = MetricPrefix + ".rounds.payout_total"
	RoundsActive       = MetricPrefix + ".rounds.active"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
)

// Label keys
const (
	// Common labels
	LabelType      = "type"
	LabelEventType = "event_type"

	// Game labels
	LabelCategory = "category"
	LabelTriple   = "triple"
)

// Message types for Discord
const (
	MessageTypeCommand     = "command"
	MessageTypeInteraction = "interaction"
	MessageTypeBet         = "bet"
	MessageTypeDice        = "dice"
	MessageTypeCancel      = "cancel"
	MessageTypeAdjust      = "adjust"
	MessageTypeShortcut    = "shortcut"
	MessageTypeIrrelevant  = "irrelevant"
)
