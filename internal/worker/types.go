package worker

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// DefaultVersion is the version reported by simulated services.
const DefaultVersion = "1.1.2"

// DefaultMinDelay and DefaultMaxDelay bound the simulated call latency.
const (
	DefaultMinDelay = 1 * time.Second
	DefaultMaxDelay = 3 * time.Second
)

var protocols = []string{"rest", "rpc", "grpc", "ws"}

// Options carries the collaborators a Worker needs. Zero fields fall back to
// the production defaults.
type Options struct {
	Version  string
	Delay    func() time.Duration // simulated latency
	NewID    func() string        // result identifier source
	Protocol func() string        // payload value source

	// OnStart and OnDone are optional observation hooks.
	OnStart func()
	OnDone  func(elapsed time.Duration)
}

func (o Options) withDefaults() Options {
	if o.Version == "" {
		o.Version = DefaultVersion
	}
	if o.Delay == nil {
		o.Delay = UniformDelay(DefaultMinDelay, DefaultMaxDelay)
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Protocol == nil {
		o.Protocol = RandomProtocol
	}
	return o
}

// UniformDelay returns a delay source drawing uniformly from [lo, hi].
// A hi below lo collapses the range to lo.
func UniformDelay(lo, hi time.Duration) func() time.Duration {
	if lo < 0 {
		lo = 0
	}
	if hi <= lo {
		return func() time.Duration { return lo }
	}
	span := hi - lo + 1
	return func() time.Duration {
		return lo + rand.N(span)
	}
}

// RandomProtocol picks one of the protocols a simulated service may speak.
func RandomProtocol() string {
	return protocols[rand.IntN(len(protocols))]
}
