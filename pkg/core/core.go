// Package core brackets the use of shared subsystems with a reference
// count. The first Start initializes every subsystem in order; the Finish
// that balances it tears them down in reverse order.
package core

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nappgui/nrc/pkg/nrc/logging"
)

var logger = logging.Get("core")

// ErrLeak is returned by Close when Start calls were not balanced.
var ErrLeak = errors.New("core: unbalanced start at shutdown")

// Subsystem is a unit of process-wide state. Either function may be nil.
type Subsystem struct {
	Name     string
	Init     func() error
	Teardown func() error
}

// Core is a reference-counted set of subsystems. It is safe for concurrent
// use.
type Core struct {
	mu         sync.Mutex
	users      int
	subsystems []Subsystem
	// active counts the subsystems whose Init succeeded.
	active int
}

// New creates a core over subsystems. Nothing is initialized until Start.
func New(subsystems ...Subsystem) *Core {
	return &Core{subsystems: subsystems}
}

// Start registers a user. The first user initializes every subsystem; if
// one fails the ones before it are torn down and the count is unchanged.
func (c *Core) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.users > 0 {
		c.users++
		return nil
	}

	for i, s := range c.subsystems {
		if s.Init == nil {
			c.active = i + 1
			continue
		}
		if err := s.Init(); err != nil {
			initErr := fmt.Errorf("starting %s: %w", s.Name, err)
			return errors.Join(initErr, c.teardown())
		}
		c.active = i + 1
	}

	c.users = 1
	logger.Debug("core started", "subsystems", len(c.subsystems))
	return nil
}

// Finish releases a user. The last user tears every subsystem down.
// Calling Finish without a matching Start panics.
func (c *Core) Finish() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.users == 0 {
		panic("core: Finish without matching Start")
	}

	c.users--
	if c.users > 0 {
		return nil
	}
	logger.Debug("core finished")
	return c.teardown()
}

// Users returns the current reference count.
func (c *Core) Users() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users
}

// Close tears down a core that still has users and reports ErrLeak.
// A balanced core closes without error.
func (c *Core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.users == 0 {
		return nil
	}

	leaked := c.users
	c.users = 0
	logger.Warn("core closed with active users", "users", leaked)
	return errors.Join(fmt.Errorf("%w: %d users", ErrLeak, leaked), c.teardown())
}

// teardown runs Teardown for every active subsystem, newest first.
// Must be called with c.mu held.
func (c *Core) teardown() error {
	var errs []error
	for i := c.active - 1; i >= 0; i-- {
		s := c.subsystems[i]
		if s.Teardown == nil {
			continue
		}
		if err := s.Teardown(); err != nil {
			errs = append(errs, fmt.Errorf("stopping %s: %w", s.Name, err))
		}
	}
	c.active = 0
	return errors.Join(errs...)
}
