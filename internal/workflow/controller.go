package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/sealcheck/internal/config"
	"github.com/JaimeStill/sealcheck/internal/report"
)

// Op names a controller operation for in-flight tracking and warnings.
type Op string

const (
	OpUpload  Op = "upload"
	OpDetect  Op = "detect"
	OpCompare Op = "compare"
	OpCleanup Op = "cleanup"
	OpExport  Op = "export"
)

// ConfirmFunc decides whether a new comparison proceeds after backend
// cleanup failed. Returning false leaves the session untouched.
type ConfirmFunc func(ctx context.Context, cause error) bool

// Exporter renders a committed comparison as a paginated PDF.
type Exporter interface {
	Export(ctx context.Context, v report.Verification, w io.Writer) (*report.Document, error)
}

// Runtime holds the dependencies a Controller needs.
// Exporter and Recorder are optional.
type Runtime struct {
	Backend  Backend
	Session  *config.SessionConfig
	Exporter Exporter
	Recorder Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Controller owns one Session and is the only writer of it.
// Backend calls run without holding the lock; a response is committed
// only if the session epoch is unchanged since the call was issued.
type Controller struct {
	rt     *Runtime
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	session   Session
	epoch     uint64
	pending   map[Op]bool
	observers map[int]func(Session)
	nextObs   int
}

type ticket struct {
	op    Op
	epoch uint64
}

// New creates a Controller in the Upload step.
func New(rt *Runtime) *Controller {
	logger := rt.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := rt.Now
	if now == nil {
		now = time.Now
	}

	return &Controller{
		rt:        rt,
		logger:    logger.With("system", "workflow"),
		now:       now,
		session:   newSession(),
		pending:   make(map[Op]bool),
		observers: make(map[int]func(Session)),
	}
}

// Snapshot returns a deep copy of the current session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

// Step returns the current step.
func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Step
}

// Ready reports whether a comparison can be requested.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Ready()
}

// Pending reports whether op is in flight.
func (c *Controller) Pending(op Op) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[op]
}

// Observe registers fn to receive a snapshot after every committed
// transition. The returned function unregisters it.
func (c *Controller) Observe(fn func(Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// begin validates preconditions and marks op in flight atomically.
func (c *Controller) begin(op Op, check func(*Session) error) (ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[op] {
		return ticket{}, fmt.Errorf("%w: %s", ErrInFlight, op)
	}
	if check != nil {
		if err := check(&c.session); err != nil {
			return ticket{}, err
		}
	}

	c.pending[op] = true
	return ticket{op: op, epoch: c.epoch}, nil
}

// abort releases op without touching the session.
func (c *Controller) abort(t ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, t.op)
}

// finish releases op and applies mutate if the epoch still matches.
func (c *Controller) finish(t ticket, mutate func(*Session) error) (Session, error) {
	c.mu.Lock()
	delete(c.pending, t.op)

	if c.epoch != t.epoch {
		c.mu.Unlock()
		return Session{}, fmt.Errorf("%w: %s", ErrStale, t.op)
	}

	if err := mutate(&c.session); err != nil {
		c.mu.Unlock()
		return Session{}, err
	}

	snap, observers := c.publish()
	c.mu.Unlock()

	notify(observers, snap)
	return snap.clone(), nil
}

// commit applies mutate unconditionally.
func (c *Controller) commit(mutate func(*Session)) Session {
	c.mu.Lock()
	mutate(&c.session)
	snap, observers := c.publish()
	c.mu.Unlock()

	notify(observers, snap)
	return snap.clone()
}

// publish must be called with mu held.
func (c *Controller) publish() (Session, []func(Session)) {
	observers := make([]func(Session), 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	return c.session.clone(), observers
}

func notify(observers []func(Session), snap Session) {
	for _, fn := range observers {
		fn(snap.clone())
	}
}

// call runs fn under the operation timeout and classifies its error.
func (c *Controller) call(ctx context.Context, op Op, timeout time.Duration, fn func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s after %s", ErrTimeout, op, timeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, ErrInvalidInput):
		return err
	default:
		return fmt.Errorf("%w: %s: %w", ErrBackend, op, err)
	}
}
