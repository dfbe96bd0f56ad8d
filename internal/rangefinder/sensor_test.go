package rangefinder

import (
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		wantCm float64
		wantOK bool
	}{
		{"valid", "DIST:123", 123, true},
		{"valid with whitespace", "  DIST: 85.5 \r", 85.5, true},
		{"below dead zone", "DIST:1", 0, false},
		{"beyond max", "DIST:500", 0, false},
		{"at max", "DIST:400", 400, true},
		{"garbage", "hello", 0, false},
		{"empty", "", 0, false},
		{"non-numeric payload", "DIST:abc", 0, false},
		{"missing prefix", "123", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, ok := ParseLine(tt.line, 400)
			if ok != tt.wantOK || cm != tt.wantCm {
				t.Errorf("ParseLine(%q) = (%v, %v), want (%v, %v)", tt.line, cm, ok, tt.wantCm, tt.wantOK)
			}
		})
	}
}

func TestSerialSensor_ReadStaleness(t *testing.T) {
	clock := time.Now()
	s := &SerialSensor{
		cfg: Config{Staleness: time.Second},
		now: func() time.Time { return clock },
	}

	if _, ok := s.Read(); ok {
		t.Error("Read before any publish should report no value")
	}

	s.publish(120)
	if cm, ok := s.Read(); !ok || cm != 120 {
		t.Errorf("Read = (%v, %v), want (120, true)", cm, ok)
	}

	clock = clock.Add(500 * time.Millisecond)
	if _, ok := s.Read(); !ok {
		t.Error("reading within staleness window should be available")
	}

	clock = clock.Add(time.Second)
	if _, ok := s.Read(); ok {
		t.Error("stale reading should be dropped")
	}
}

func TestSerialSensor_LastValueWins(t *testing.T) {
	s := &SerialSensor{
		cfg: Config{Staleness: time.Minute},
		now: time.Now,
	}
	s.publish(100)
	s.publish(250)
	if cm, _ := s.Read(); cm != 250 {
		t.Errorf("Read = %v, want the latest value 250", cm)
	}
}

func TestMock(t *testing.T) {
	m := NewMock()
	if _, ok := m.Read(); ok {
		t.Error("fresh mock should have no reading")
	}
	m.Set(75)
	if cm, ok := m.Read(); !ok || cm != 75 {
		t.Errorf("Read = (%v, %v), want (75, true)", cm, ok)
	}
	m.Clear()
	if _, ok := m.Read(); ok {
		t.Error("cleared mock should have no reading")
	}
}
