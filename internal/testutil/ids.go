package testutil

import (
	"fmt"
	"sync"
)

// PrefixGenerator produces sequential ids like "v-0001", "v-0002", ...
// Unlike domain.FixedGenerator it never exhausts, which suits scenario
// runs where the number of generated ids depends on the scenario.
//
// Thread-safety: safe for concurrent use via internal mutex.
type PrefixGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewPrefixGenerator creates a generator with the given id prefix.
func NewPrefixGenerator(prefix string) *PrefixGenerator {
	return &PrefixGenerator{prefix: prefix}
}

// Generate returns the next sequential id.
func (g *PrefixGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
