package market

import (
	"errors"
	"sync"
	"time"
)

var ErrNoPrice = errors.New("price not found")

// Ticker is the latest quote summary for a contract.
type Ticker struct {
	Symbol     string
	Last       float64
	MarkPrice  float64
	IndexPrice float64
	Volume24h  float64
}

// Price returns Last, or MarkPrice when Last is unset.
func (t Ticker) Price() float64 {
	if t.Last > 0 {
		return t.Last
	}
	return t.MarkPrice
}

type cachedPrice struct {
	price float64
	at    time.Time
}

// PriceCache remembers the last known good price per symbol.
type PriceCache struct {
	mu     sync.RWMutex
	prices map[string]cachedPrice
}

func NewPriceCache() *PriceCache {
	return &PriceCache{prices: make(map[string]cachedPrice)}
}

// Set stores price for symbol. Non-positive prices are ignored.
func (pc *PriceCache) Set(symbol string, price float64) {
	if price <= 0 {
		return
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.prices[symbol] = cachedPrice{price: price, at: time.Now()}
}

func (pc *PriceCache) Get(symbol string) (float64, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	p, ok := pc.prices[symbol]
	if !ok {
		return 0, ErrNoPrice
	}
	return p.price, nil
}

// Age reports how long ago symbol's price was stored.
func (pc *PriceCache) Age(symbol string) (time.Duration, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	p, ok := pc.prices[symbol]
	if !ok {
		return 0, false
	}
	return time.Since(p.at), true
}
