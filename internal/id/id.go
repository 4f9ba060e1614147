// Package id issues ULIDs for runs and trades.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

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
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a random ULID stamped with the current time. Used for run IDs.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// Generator yields reproducible ULIDs: the same seed and the same sequence
// of timestamps produce the same IDs. It is not safe for concurrent use.
type Generator struct {
	entropy io.Reader
}

func NewGenerator(seed int64) *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

// Next returns an ID stamped with t. Times before the unix epoch are
// stamped as the epoch.
func (g *Generator) Next(t time.Time) string {
	ms := uint64(0)
	if t.UnixMilli() > 0 {
		ms = uint64(t.UnixMilli())
	}
	id, err := ulid.New(ms, g.entropy)
	if err != nil {
		panic(err)
	}
	return id.String()
}
