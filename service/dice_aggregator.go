package service

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"sicbo/models"

	log "github.com/sirupsen/logrus"
)

const (
	diceWildcard   = "🎲"
	keycapModifier = "\u20E3"
	variationSel16 = "\uFE0F"
)

// DiceProgress reports where an actor stands after submitting dice
type DiceProgress struct {
	Values    []int
	Remaining int
	Outcome   *models.Outcome // Set once three values are held
}

// Ready returns true when a complete outcome is available
func (p *DiceProgress) Ready() bool {
	return p.Outcome != nil
}

type diceBuffer struct {
	roundID string
	values  []int
}

// DiceAggregator collects dice per actor until three values form an outcome.
// State lives in memory; a restart loses partially collected rolls.
type DiceAggregator struct {
	mu      sync.Mutex
	buffers map[int64]*diceBuffer
	roll    func() int
}

// NewDiceAggregator creates an aggregator that resolves wildcards with a uniform 1-6 draw
func NewDiceAggregator() *DiceAggregator {
	return NewDiceAggregatorWithRoller(func() int { return rand.Intn(6) + 1 })
}

// NewDiceAggregatorWithRoller creates an aggregator with a custom die
func NewDiceAggregatorWithRoller(roll func() int) *DiceAggregator {
	return &DiceAggregator{
		buffers: make(map[int64]*diceBuffer),
		roll:    roll,
	}
}

// Roll throws one server-side die
func (a *DiceAggregator) Roll() int {
	return a.roll()
}

// SubmitSymbols reads exactly three die symbols from one message. 1️⃣-6️⃣ are fixed faces
// and 🎲 is drawn at read time. The sequential roll buffer is left untouched.
func (a *DiceAggregator) SubmitSymbols(actorID int64, text string) (*DiceProgress, error) {
	symbols := extractDiceSymbols(text)
	if len(symbols) != 3 {
		return nil, fmt.Errorf("%w: found %d", ErrDiceSymbolCount, len(symbols))
	}

	var outcome models.Outcome
	for i, face := range symbols {
		if face == 0 {
			face = a.roll()
		}
		outcome[i] = face
	}
	if err := outcome.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDieValue, err)
	}

	log.WithFields(log.Fields{
		"actor":   actorID,
		"outcome": outcome.String(),
	}).Debug("Dice symbols resolved")

	return &DiceProgress{Values: outcome[:], Outcome: &outcome}, nil
}

// SubmitRoll appends one native roll for the actor. The buffer restarts when the round
// changes and is cleared as soon as three values are held.
func (a *DiceAggregator) SubmitRoll(actorID int64, roundID string, value int) (*DiceProgress, error) {
	if value < 1 || value > 6 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDieValue, value)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	buf, ok := a.buffers[actorID]
	if !ok || buf.roundID != roundID {
		buf = &diceBuffer{roundID: roundID}
		a.buffers[actorID] = buf
	}
	buf.values = append(buf.values, value)

	progress := &DiceProgress{
		Values:    append([]int(nil), buf.values...),
		Remaining: 3 - len(buf.values),
	}

	if len(buf.values) == 3 {
		outcome := models.Outcome{buf.values[0], buf.values[1], buf.values[2]}
		progress.Outcome = &outcome
		delete(a.buffers, actorID)
	}

	log.WithFields(log.Fields{
		"actor":     actorID,
		"round":     roundID,
		"value":     value,
		"remaining": progress.Remaining,
	}).Debug("Native roll recorded")

	return progress, nil
}

// Pending returns how many rolls the actor has buffered for the round
func (a *DiceAggregator) Pending(actorID int64, roundID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if buf, ok := a.buffers[actorID]; ok && buf.roundID == roundID {
		return len(buf.values)
	}
	return 0
}

// Reset drops any buffered rolls for the actor
func (a *DiceAggregator) Reset(actorID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.buffers, actorID)
}

// ContainsDiceSymbols reports whether text has any die symbol
func ContainsDiceSymbols(text string) bool {
	return len(extractDiceSymbols(text)) > 0
}

// extractDiceSymbols returns the faces found in text in order; 0 marks a wildcard
func extractDiceSymbols(text string) []int {
	var faces []int
	for i := 0; i < len(text); {
		if strings.HasPrefix(text[i:], diceWildcard) {
			faces = append(faces, 0)
			i += len(diceWildcard)
			continue
		}
		c := text[i]
		if c >= '1' && c <= '6' {
			rest := text[i+1:]
			rest = strings.TrimPrefix(rest, variationSel16)
			if strings.HasPrefix(rest, keycapModifier) {
				faces = append(faces, int(c-'0'))
				i = len(text) - len(rest) + len(keycapModifier)
				continue
			}
		}
		i++
	}
	return faces
}
