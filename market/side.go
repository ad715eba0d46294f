package market

import (
	"fmt"
	"strings"
)

// Side is the direction of a position.
type Side int

const (
	Flat Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Opposite returns Short for Long and Long for Short. Flat stays Flat.
func (s Side) Opposite() Side {
	switch s {
	case Long:
		return Short
	case Short:
		return Long
	default:
		return Flat
	}
}

// OrderSide returns the order side that opens (or adds to) a position on s.
func (s Side) OrderSide() OrderSide {
	if s == Short {
		return Sell
	}
	return Buy
}

// OrderSide is the direction of an order.
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// Side returns the position side an order on o opens.
func (o OrderSide) Side() Side {
	switch o {
	case Buy:
		return Long
	case Sell:
		return Short
	default:
		return Flat
	}
}

func (o OrderSide) Valid() bool {
	return o == Buy || o == Sell
}

func ParseOrderSide(s string) (OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown order side %q", s)
	}
}
