package bot

import (
	"regexp"
	"strconv"
	"strings"

	"sicbo/infrastructure/observability"
	"sicbo/service"
)

// messageKind is what a chat message in the game channel asks the bot to do
type messageKind int

const (
	messageIrrelevant messageKind = iota
	messageShortcutBalance
	messageShortcutMyBets
	messageShortcutAllBets
	messageCancel
	messageAdjust
	messageDice
	messageBet
)

var (
	adjustByIDPattern    = regexp.MustCompile(`(?i)^ID\s*(\d+)\s*([+-]\d+)$`)
	adjustByReplyPattern = regexp.MustCompile(`^([+-]\d+)$`)
)

var shortcuts = map[string]messageKind{
	"1":  messageShortcutBalance,
	"22": messageShortcutMyBets,
	"33": messageShortcutAllBets,
}

var cancelWords = map[string]bool{
	"cancel": true,
	"取消":     true,
}

// messageIntent is the classification of one chat message
type messageIntent struct {
	Kind     messageKind
	Delta    int64 // Signed amount for adjustments
	TargetID int64 // Explicit target for ID<id> adjustments, 0 when taken from the replied-to message
}

// classifyMessage decides how a game channel message is handled. Exact shortcuts and
// commands win over dice, and dice win over bets.
func classifyMessage(content string, isReply bool) messageIntent {
	text := strings.TrimSpace(content)

	if kind, ok := shortcuts[text]; ok {
		return messageIntent{Kind: kind}
	}
	if cancelWords[strings.ToLower(text)] {
		return messageIntent{Kind: messageCancel}
	}
	if m := adjustByIDPattern.FindStringSubmatch(text); m != nil {
		target, err1 := strconv.ParseInt(m[1], 10, 64)
		delta, err2 := strconv.ParseInt(m[2], 10, 64)
		if err1 == nil && err2 == nil && delta != 0 {
			return messageIntent{Kind: messageAdjust, Delta: delta, TargetID: target}
		}
	}
	if isReply {
		if m := adjustByReplyPattern.FindStringSubmatch(text); m != nil {
			if delta, err := strconv.ParseInt(m[1], 10, 64); err == nil && delta != 0 {
				return messageIntent{Kind: messageAdjust, Delta: delta}
			}
		}
	}
	if service.ContainsDiceSymbols(text) {
		return messageIntent{Kind: messageDice}
	}
	if len(service.ParseBets(text)) > 0 || service.LooksLikeBet(text) {
		return messageIntent{Kind: messageBet}
	}
	return messageIntent{Kind: messageIrrelevant}
}

// metricType maps a message kind onto the messages-read metric label
func (k messageKind) metricType() string {
	switch k {
	case messageShortcutBalance, messageShortcutMyBets, messageShortcutAllBets:
		return observability.MessageTypeShortcut
	case messageCancel:
		return observability.MessageTypeCancel
	case messageAdjust:
		return observability.MessageTypeAdjust
	case messageDice:
		return observability.MessageTypeDice
	case messageBet:
		return observability.MessageTypeBet
	default:
		return observability.MessageTypeIrrelevant
	}
}
