package platform

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/gridsync/internal/watch"
)

// Phase is the discovery progress of one platform.
type Phase int

const (
	NeedsFetched Phase = iota
	Fetching
	Fetched
)

func (p Phase) String() string {
	switch p {
	case NeedsFetched:
		return "pending"
	case Fetching:
		return "fetching"
	case Fetched:
		return "fetched"
	default:
		return "unknown"
	}
}

// Status is the latest discovery state of a platform. Games and Err are only
// meaningful once Phase is Fetched.
type Status struct {
	Phase Phase
	Games []Game
	Err   error
}

// NamedStatus pairs a platform name with its status.
type NamedStatus struct {
	Name   string
	Status Status
}

type source struct {
	platform Platform
	status   *watch.Value[Status]
}

// Collector runs discovery for every enabled platform concurrently and keeps
// one latest-value channel per platform.
type Collector struct {
	sources []*source
	logger  *zap.Logger

	mu    sync.Mutex
	seq   uint64
	round *round
}

// round is one Start call. done closes once every platform of the round has
// returned.
type round struct {
	id   uint64
	done chan struct{}
}

// Results is the merged outcome of a discovery round.
type Results struct {
	Games   []Game   // in platform order, then discovery order
	Failed  []string // platforms whose discovery failed
	Pending []string // platforms still fetching
}

// Unavailable returns the platforms that contributed no games this round.
func (r Results) Unavailable() []string {
	return append(append([]string(nil), r.Failed...), r.Pending...)
}

// NewCollector keeps the enabled platforms in the given order.
func NewCollector(platforms []Platform, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{logger: logger}
	for _, p := range platforms {
		if p == nil || !p.Enabled() {
			continue
		}
		c.sources = append(c.sources, &source{platform: p, status: watch.New(Status{})})
	}
	return c
}

// Start launches discovery on every platform and returns immediately. Calling
// it again starts a fresh round; results of an older round still running are
// dropped.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	c.seq++
	r := &round{id: c.seq, done: make(chan struct{})}
	c.round = r
	for _, src := range c.sources {
		src.status.Send(Status{Phase: Fetching})
	}
	c.mu.Unlock()

	var g errgroup.Group
	for _, src := range c.sources {
		g.Go(func() error {
			games, err := c.discover(ctx, src.platform)
			if err != nil {
				c.logger.Warn("platform discovery failed",
					zap.String("platform", src.platform.Name()), zap.Error(err))
			} else {
				c.logger.Info("platform discovery finished",
					zap.String("platform", src.platform.Name()), zap.Int("games", len(games)))
			}
			c.publish(r, src, Status{Phase: Fetched, Games: games, Err: err})
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(r.done)
	}()
}

func (c *Collector) publish(r *round, src *source, st Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.round != r {
		c.logger.Debug("dropping stale discovery result",
			zap.String("platform", src.platform.Name()), zap.Uint64("round", r.id))
		return
	}
	src.status.Send(st)
}

func (c *Collector) discover(ctx context.Context, p Platform) (games []Game, err error) {
	defer func() {
		if r := recover(); r != nil {
			games, err = nil, fmt.Errorf("discovery panicked: %v", r)
		}
	}()
	if err := p.SettingsValid(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return p.Discover(ctx)
}

// AllReady reports whether every platform has finished its current round.
func (c *Collector) AllReady() bool {
	for _, src := range c.sources {
		if src.status.Borrow().Phase != Fetched {
			return false
		}
	}
	return true
}

// Wait blocks until the latest round has finished or ctx is done. Before the
// first Start it waits for ctx unless there are no platforms.
func (c *Collector) Wait(ctx context.Context) error {
	c.mu.Lock()
	r := c.round
	c.mu.Unlock()
	if r == nil {
		if len(c.sources) == 0 {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return nil
	}
}

// Statuses returns a snapshot of every platform's status.
func (c *Collector) Statuses() []NamedStatus {
	out := make([]NamedStatus, 0, len(c.sources))
	for _, src := range c.sources {
		out = append(out, NamedStatus{Name: src.platform.Name(), Status: src.status.Borrow()})
	}
	return out
}

// Results merges the fetched games. Platforms still fetching contribute
// nothing and are listed in Pending.
func (c *Collector) Results() Results {
	var res Results
	for _, src := range c.sources {
		st := src.status.Borrow()
		if st.Phase != Fetched {
			res.Pending = append(res.Pending, src.platform.Name())
			continue
		}
		if st.Err != nil {
			res.Failed = append(res.Failed, src.platform.Name())
			continue
		}
		res.Games = append(res.Games, st.Games...)
	}
	return res
}
