package models

import "fmt"

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Direction returns +1 for buy, -1 for sell.
func (s Side) Direction() int {
	if s == SideBuy {
		return 1
	}

	return -1
}

func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}

	return SideBuy
}

func (s Side) Validate() error {
	if s != SideBuy && s != SideSell {
		return fmt.Errorf("Side: Validate: invalid side: %s", s)
	}

	return nil
}
