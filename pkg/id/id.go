// Package id generates time-sortable identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic keeps ids from the same millisecond in order.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// NewOrderID returns prefix + "_" + ULID, e.g. "sim_01J...". Simulated
// fills use these so they sort by time in the journal.
func NewOrderID(prefix string) string {
	if prefix == "" {
		return New()
	}
	return prefix + "_" + New()
}

// ClientOrderID returns a random tag for exchanges that accept a
// caller-supplied order reference. Gate.io requires the "t-" prefix and
// limits the text to 30 characters.
func ClientOrderID(prefix string) string {
	s := prefix + uuid.NewString()
	if len(s) > 30 {
		s = s[:30]
	}
	return s
}
