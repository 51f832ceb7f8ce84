package memsim

import (
	"fmt"
	"strings"

	"github.com/go-kit/log"
)

// DefaultMemorySize is the size of the simulated address space when none is configured.
const DefaultMemorySize = 1024

// Policy selects which free block satisfies an allocation.
type Policy int

const (
	// FirstFit takes the lowest addressed free block that is large enough.
	FirstFit Policy = iota
	// BestFit takes the smallest free block that is large enough.
	BestFit
	// WorstFit takes the largest free block.
	WorstFit
)

// Policies lists every placement policy in declaration order.
var Policies = []Policy{FirstFit, BestFit, WorstFit}

func (p Policy) String() string {
	switch p {
	case FirstFit:
		return "first"
	case BestFit:
		return "best"
	case WorstFit:
		return "worst"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy accepts a policy name with or without the "fit" suffix, e.g. "best" or "bestfit".
func ParsePolicy(s string) (Policy, error) {
	name := strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "fit"), "-")
	for _, p := range Policies {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrInvalidPolicy)
}

// Config describes a simulated address space.
type Config struct {
	// MemorySize is the number of addresses, starting at zero.
	MemorySize int64
	Policy     Policy
	// Logger receives debug events for allocations and frees. Nil disables logging.
	Logger log.Logger
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	if c.MemorySize <= 0 {
		return fmt.Errorf("memory size must be positive, got %d", c.MemorySize)
	}
	switch c.Policy {
	case FirstFit, BestFit, WorstFit:
	default:
		return fmt.Errorf("policy %v: %w", c.Policy, ErrInvalidPolicy)
	}
	return nil
}
