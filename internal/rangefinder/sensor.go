// Package rangefinder reads an ultrasonic rangefinder attached over a
// serial line. The microcontroller emits one "DIST:<cm>" line per
// measurement; the reader publishes the latest valid value and readers
// never block on the serial loop.
package rangefinder

import (
	"bufio"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// MinDistanceCm is the sensor's dead zone floor.
	MinDistanceCm = 2.0

	defaultMaxDistanceCm = 400.0
	defaultStaleness     = 2 * time.Second
)

type Config struct {
	Port          string
	BaudRate      int
	MaxDistanceCm float64
	// Staleness bounds how old a reading may be before Read reports
	// no value.
	Staleness time.Duration
}

// SerialSensor owns the serial port and a background read loop.
type SerialSensor struct {
	port serial.Port
	cfg  Config
	log  *slog.Logger

	mu     sync.RWMutex
	lastCm float64
	lastAt time.Time

	stop chan struct{}
	done chan struct{}
	now  func() time.Time
}

// Open opens the serial port and returns a sensor ready to Start.
func Open(cfg Config, log *slog.Logger) (*SerialSensor, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	if cfg.MaxDistanceCm == 0 {
		cfg.MaxDistanceCm = defaultMaxDistanceCm
	}
	if cfg.Staleness == 0 {
		cfg.Staleness = defaultStaleness
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("open rangefinder port %s: %w", cfg.Port, err)
	}

	return &SerialSensor{
		port: port,
		cfg:  cfg,
		log:  log.With("component", "rangefinder"),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		now:  time.Now,
	}, nil
}

func (s *SerialSensor) Start() {
	go s.readLoop()
}

func (s *SerialSensor) Stop() error {
	close(s.stop)
	err := s.port.Close()
	<-s.done
	return err
}

// Read returns the latest distance in centimeters. ok is false when
// no reading has arrived within the staleness window.
func (s *SerialSensor) Read() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastAt.IsZero() || s.now().Sub(s.lastAt) > s.cfg.Staleness {
		return 0, false
	}
	return s.lastCm, true
}

func (s *SerialSensor) readLoop() {
	defer close(s.done)

	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		select {
		case <-s.stop:
			return
		default:
		}

		cm, ok := ParseLine(scanner.Text(), s.cfg.MaxDistanceCm)
		if !ok {
			continue
		}
		s.publish(cm)
	}

	if err := scanner.Err(); err != nil {
		select {
		case <-s.stop:
		default:
			s.log.Error("rangefinder serial read failed", "error", err)
		}
	}
}

func (s *SerialSensor) publish(cm float64) {
	s.mu.Lock()
	s.lastCm = cm
	s.lastAt = s.now()
	s.mu.Unlock()
}

// ParseLine extracts a distance from one serial line. Lines that are
// not "DIST:<cm>" or fall outside [MinDistanceCm, maxCm] are dropped.
func ParseLine(line string, maxCm float64) (float64, bool) {
	line = strings.TrimSpace(line)
	raw, found := strings.CutPrefix(line, "DIST:")
	if !found {
		return 0, false
	}

	cm, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	if cm < MinDistanceCm || cm > maxCm {
		return 0, false
	}
	return cm, true
}
