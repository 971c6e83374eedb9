// SPDX-License-Identifier: MIT
// Package actuator drives an external serial device when the sleeper starts
// dreaming: an "on" code, a cooldown, then an "off" code.
package actuator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "zeoscribe/internal/log"
)

// BaudRate is the fixed line speed of the actuator board.
const BaudRate = 9600

var logger = applog.Component("Actuator")

// Config is the actuator section supplied by the configuration collaborator.
// Codes and delay are kept as text, the way the port dialog collects them.
type Config struct {
	Enabled      bool   `yaml:"enabled"`
	Port         string `yaml:"port"`
	DelayMinutes string `yaml:"delay_minutes"`
	OnCode       string `yaml:"on_code"`
	OffCode      string `yaml:"off_code"`
}

// DefaultConfig mirrors the dialog's initial values.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		Port:         "COM1",
		DelayMinutes: "1",
		OnCode:       "1",
		OffCode:      "0",
	}
}

// Delay parses DelayMinutes.
func (c Config) Delay() (time.Duration, error) {
	m, err := strconv.Atoi(strings.TrimSpace(c.DelayMinutes))
	if err != nil {
		return 0, fmt.Errorf("invalid actuator delay %q: %w", c.DelayMinutes, err)
	}
	if m < 0 {
		return 0, fmt.Errorf("invalid actuator delay %q: must not be negative", c.DelayMinutes)
	}
	return time.Duration(m) * time.Minute, nil
}

// Validate checks an enabled configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port == "" {
		return errors.New("actuator port must be set when the actuator is enabled")
	}
	_, err := c.Delay()
	return err
}

// Port is an open actuator line.
type Port interface {
	WriteLine(code string) error
	Close() error
}

// OpenFunc opens the actuator transport.
type OpenFunc func(port string, baud int) (Port, error)

// Trigger runs at most one on/cooldown/off task at a time. The latch is
// closed by Fire and reopened by the task itself on every exit path.
type Trigger struct {
	cfg   Config
	delay time.Duration
	open  OpenFunc

	latch atomic.Bool
	fired atomic.Uint64

	mu     sync.Mutex // orders wg.Add in Fire against cancel in Close
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a trigger. An unparsable delay falls back to one minute.
func New(cfg Config, open OpenFunc) *Trigger {
	delay, err := cfg.Delay()
	if err != nil {
		logger.Warnf("%v, defaulting to 1 minute", err)
		delay = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Trigger{
		cfg:    cfg,
		delay:  delay,
		open:   open,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enabled reports whether the configuration turned the actuator on.
func (t *Trigger) Enabled() bool {
	return t.cfg.Enabled
}

// Busy reports whether a task currently holds the latch.
func (t *Trigger) Busy() bool {
	return t.latch.Load()
}

// Fired returns the number of tasks started so far.
func (t *Trigger) Fired() uint64 {
	return t.fired.Load()
}

// Fire starts a task unless the actuator is disabled, closed, or a previous
// task still holds the latch. It never blocks.
func (t *Trigger) Fire() bool {
	if !t.cfg.Enabled {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctx.Err() != nil {
		return false
	}
	if !t.latch.CompareAndSwap(false, true) {
		return false
	}
	t.fired.Add(1)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.latch.Store(false)
		if err := t.run(t.ctx); err != nil {
			logger.Errorf("%v", err)
		}
	}()
	return true
}

func (t *Trigger) run(ctx context.Context) error {
	logger.Infof("Dreaming detected, signalling %s", t.cfg.Port)

	port, err := t.open(t.cfg.Port, BaudRate)
	if err != nil {
		return fmt.Errorf("failed to open actuator port %s: %w", t.cfg.Port, err)
	}
	defer func() {
		if err := port.Close(); err != nil {
			logger.Warnf("Error closing %s: %v", t.cfg.Port, err)
		}
	}()

	if err := port.WriteLine(t.cfg.OnCode); err != nil {
		return fmt.Errorf("failed to write on code: %w", err)
	}

	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		logger.Infof("Cooldown cancelled, sending off code early")
	}

	if err := port.WriteLine(t.cfg.OffCode); err != nil {
		return fmt.Errorf("failed to write off code: %w", err)
	}
	logger.Debugf("Cycle complete on %s", t.cfg.Port)
	return nil
}

// Close cancels a pending cooldown and waits for the task to finish. No
// task starts after Close.
func (t *Trigger) Close() error {
	t.mu.Lock()
	t.cancel()
	t.mu.Unlock()
	t.wg.Wait()
	return nil
}
