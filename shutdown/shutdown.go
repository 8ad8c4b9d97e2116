// Package shutdown coordinates graceful shutdown of the agent server's
// components on SIGINT/SIGTERM.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ErrAlreadyShutdown indicates shutdown was already initiated.
var ErrAlreadyShutdown = errors.New("shutdown already initiated")

// Handler is implemented by components that need graceful shutdown.
type Handler interface {
	// OnShutdown is called when shutdown is initiated. The context is
	// cancelled when the timeout is reached.
	OnShutdown(ctx context.Context) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context) error

// OnShutdown implements Handler.
func (f HandlerFunc) OnShutdown(ctx context.Context) error {
	return f(ctx)
}

// Config configures a Coordinator.
type Config struct {
	// DefaultTimeout bounds the whole shutdown sequence. Defaults to 15s.
	DefaultTimeout time.Duration
}

// Coordinator runs registered handlers in registration order when
// shutdown is triggered by a signal or an explicit call.
type Coordinator struct {
	mu       sync.Mutex
	timeout  time.Duration
	handlers []registration
	done     chan struct{}
	once     sync.Once
	err      error
}

type registration struct {
	name    string
	handler Handler
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	timeout := cfg.DefaultTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Coordinator{
		timeout: timeout,
		done:    make(chan struct{}),
	}
}

// Register adds a handler, called in registration order at shutdown.
func (c *Coordinator) Register(name string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, registration{name: name, handler: handler})
}

// RegisterFunc adds a plain function as a handler.
func (c *Coordinator) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(name, HandlerFunc(fn))
}

// HandleSignals triggers shutdown on SIGINT or SIGTERM.
func (c *Coordinator) HandleSignals() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		c.Trigger()
	}()
}

// Trigger starts the shutdown sequence. Subsequent calls are no-ops.
func (c *Coordinator) Trigger() {
	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		c.err = c.run(ctx)
		close(c.done)
	})
}

// Shutdown runs the sequence with the caller's context and returns its
// outcome. Returns ErrAlreadyShutdown if already triggered.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	ran := false
	c.once.Do(func() {
		ran = true
		c.err = c.run(ctx)
		close(c.done)
	})
	if !ran {
		return ErrAlreadyShutdown
	}
	return c.err
}

// Done is closed once shutdown has completed.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns the shutdown outcome. Valid after Done is closed.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	var errs []error
	for _, reg := range handlers {
		if err := reg.handler.OnShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", reg.name, err))
		}
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
	}
	return errors.Join(errs...)
}
