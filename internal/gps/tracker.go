// Package gps publishes the most recent GPS fix read from a serial
// NMEA stream. Readers never block on the serial loop; the last fix
// wins and expires after a staleness window.
package gps

import (
	"bufio"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/sightline-labs/sightline/internal/geo"
)

// Source is the consumed position capability: the latest fix, or
// ok=false when none is fresh.
type Source interface {
	Position() (geo.Coordinate, bool)
}

type Config struct {
	Port      string
	BaudRate  int
	Staleness time.Duration
}

type SerialTracker struct {
	port serial.Port
	cfg  Config
	log  *slog.Logger

	mu      sync.RWMutex
	lastFix geo.Coordinate
	lastAt  time.Time

	stop chan struct{}
	done chan struct{}
	now  func() time.Time
}

func Open(cfg Config, log *slog.Logger) (*SerialTracker, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600
	}
	if cfg.Staleness == 0 {
		cfg.Staleness = 10 * time.Second
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open gps port %s: %w", cfg.Port, err)
	}

	return &SerialTracker{
		port: port,
		cfg:  cfg,
		log:  log.With("component", "gps"),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		now:  time.Now,
	}, nil
}

func (t *SerialTracker) Start() {
	go t.readLoop()
}

func (t *SerialTracker) Stop() error {
	close(t.stop)
	err := t.port.Close()
	<-t.done
	return err
}

func (t *SerialTracker) Position() (geo.Coordinate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.lastAt.IsZero() || t.now().Sub(t.lastAt) > t.cfg.Staleness {
		return geo.Coordinate{}, false
	}
	return t.lastFix, true
}

func (t *SerialTracker) readLoop() {
	defer close(t.done)

	scanner := bufio.NewScanner(t.port)
	for scanner.Scan() {
		select {
		case <-t.stop:
			return
		default:
		}

		fix, ok := ParseSentence(scanner.Text())
		if !ok {
			continue
		}
		t.publish(fix)
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-t.stop:
		default:
			t.log.Error("gps serial read failed", "error", err)
		}
	}
}

func (t *SerialTracker) publish(fix geo.Coordinate) {
	t.mu.Lock()
	t.lastFix = fix
	t.lastAt = t.now()
	t.mu.Unlock()
}
