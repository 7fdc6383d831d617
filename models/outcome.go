package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Outcome is the three die faces of a round
type Outcome [3]int

// ParseOutcome parses the "a,b,c" storage form
func ParseOutcome(s string) (Outcome, error) {
	var o Outcome
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return o, fmt.Errorf("outcome %q must have three faces", s)
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return o, fmt.Errorf("outcome %q has a non-numeric face: %w", s, err)
		}
		o[i] = v
	}
	return o, o.Validate()
}

// Validate checks every face is in [1,6]
func (o Outcome) Validate() error {
	for i, v := range o {
		if v < 1 || v > 6 {
			return fmt.Errorf("die %d has value %d, must be between 1 and 6", i+1, v)
		}
	}
	return nil
}

// Total returns the sum of the faces
func (o Outcome) Total() int {
	return o[0] + o[1] + o[2]
}

// IsTriple returns true when all three faces are equal
func (o Outcome) IsTriple() bool {
	return o[0] == o[1] && o[1] == o[2]
}

// Size returns big when the total is above 10, small otherwise
func (o Outcome) Size() BetCategory {
	if o.Total() > 10 {
		return CategoryBig
	}
	return CategorySmall
}

// Parity returns odd or even for the total
func (o Outcome) Parity() BetCategory {
	if o.Total()%2 == 1 {
		return CategoryOdd
	}
	return CategoryEven
}

// String returns the "a,b,c" storage form
func (o Outcome) String() string {
	return fmt.Sprintf("%d,%d,%d", o[0], o[1], o[2])
}
