package navigation

import (
	"errors"
	"strings"
	"testing"

	"github.com/sightline-labs/sightline/internal/audio"
	"github.com/sightline-labs/sightline/internal/geo"
	"github.com/sightline-labs/sightline/internal/gps"
	"github.com/sightline-labs/sightline/internal/shared"
)

type spokenMessage struct {
	text     string
	priority audio.Priority
}

type fakeSpeaker struct {
	messages []spokenMessage
}

func (f *fakeSpeaker) Enqueue(text string, priority audio.Priority, interrupt bool) {
	f.messages = append(f.messages, spokenMessage{text: text, priority: priority})
}

// Waypoints roughly 100 m apart along a meridian; 0.001 deg of
// latitude is about 111 m.
func testRoute() Route {
	return Route{
		Destination: "the library",
		Steps: []RouteStep{
			{
				Instruction: "Head north on Main Street",
				Start:       geo.Coordinate{Lat: 51.5000, Lon: -0.1000},
				End:         geo.Coordinate{Lat: 51.5010, Lon: -0.1000},
			},
			{
				Instruction: "Turn right onto Park Lane",
				Start:       geo.Coordinate{Lat: 51.5010, Lon: -0.1000},
				End:         geo.Coordinate{Lat: 51.5020, Lon: -0.1000},
			},
		},
	}
}

func newTestEngine(mock *gps.Mock) (*Engine, *fakeSpeaker) {
	speaker := &fakeSpeaker{}
	return NewEngine(DefaultEngineConfig(), mock, speaker, nil), speaker
}

func TestEngine_StartRejectsEmptyRoute(t *testing.T) {
	e, _ := newTestEngine(gps.NewMock())
	if err := e.Start(Route{}); !errors.Is(err, shared.ErrNoRoute) {
		t.Fatalf("Start(empty) = %v, want ErrNoRoute", err)
	}
	if e.State() != StateIdle {
		t.Errorf("state = %s, want idle", e.State())
	}
}

func TestEngine_UpdateWithoutFix(t *testing.T) {
	mock := gps.NewMock(geo.Coordinate{Lat: 51.5, Lon: -0.1})
	e, _ := newTestEngine(mock)
	if err := e.Start(testRoute()); err != nil {
		t.Fatal(err)
	}

	mock.Lose()
	if err := e.Update(); !errors.Is(err, shared.ErrNoFix) {
		t.Fatalf("Update() = %v, want ErrNoFix", err)
	}
	if e.State() != StateNavigating {
		t.Errorf("state changed on NoFix: %s", e.State())
	}
}

func TestEngine_AnnounceOncePerStep(t *testing.T) {
	// 40 m short of step one's end: inside the 50 m announce radius,
	// outside the 10 m advance radius.
	mock := gps.NewMock(geo.Coordinate{Lat: 51.50064, Lon: -0.1000})
	e, speaker := newTestEngine(mock)
	if err := e.Start(testRoute()); err != nil {
		t.Fatal(err)
	}
	startMsgs := len(speaker.messages)

	if err := e.Update(); err != nil {
		t.Fatal(err)
	}
	if err := e.Update(); err != nil {
		t.Fatal(err)
	}

	var announcements []spokenMessage
	for _, m := range speaker.messages[startMsgs:] {
		if strings.Contains(m.text, "Head north") {
			announcements = append(announcements, m)
		}
	}
	if len(announcements) != 1 {
		t.Fatalf("got %d step announcements, want 1: %v", len(announcements), speaker.messages)
	}
	if announcements[0].priority != audio.PriorityNavigational {
		t.Errorf("priority = %v, want navigational", announcements[0].priority)
	}
	if !strings.Contains(announcements[0].text, "meters") {
		t.Errorf("announcement missing distance: %q", announcements[0].text)
	}
}

func TestEngine_AdvancesSteps(t *testing.T) {
	mock := gps.NewMock(
		// within 10 m of step one's end
		geo.Coordinate{Lat: 51.50099, Lon: -0.1000},
	)
	e, _ := newTestEngine(mock)
	if err := e.Start(testRoute()); err != nil {
		t.Fatal(err)
	}

	if err := e.Update(); err != nil {
		t.Fatal(err)
	}
	step, ok := e.CurrentStep()
	if !ok || step != 1 {
		t.Fatalf("step = %d, %v; want 1, true", step, ok)
	}

	// A second tick at the same spot must not advance past the last
	// step.
	if err := e.Update(); err != nil {
		t.Fatal(err)
	}
	if step, _ = e.CurrentStep(); step != 1 {
		t.Errorf("step index moved past final step: %d", step)
	}
}

func TestEngine_ArrivalIsIdempotent(t *testing.T) {
	// Within 20 m of the final waypoint.
	mock := gps.NewMock(geo.Coordinate{Lat: 51.50190, Lon: -0.1000})
	e, speaker := newTestEngine(mock)
	if err := e.Start(testRoute()); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := e.Update(); err != nil {
			t.Fatal(err)
		}
	}

	if e.State() != StateArrived {
		t.Fatalf("state = %s, want arrived", e.State())
	}

	var arrivals []spokenMessage
	for _, m := range speaker.messages {
		if strings.Contains(m.text, "arrived") {
			arrivals = append(arrivals, m)
		}
	}
	if len(arrivals) != 1 {
		t.Fatalf("got %d arrival messages, want 1", len(arrivals))
	}
	if arrivals[0].priority != audio.PrioritySocial {
		t.Errorf("arrival priority = %v, want social", arrivals[0].priority)
	}
}

func TestEngine_OffRouteAdvisory(t *testing.T) {
	// ~220 m east of the route: beyond the 30 m reroute radius.
	mock := gps.NewMock(geo.Coordinate{Lat: 51.5005, Lon: -0.0968})
	e, speaker := newTestEngine(mock)
	if err := e.Start(testRoute()); err != nil {
		t.Fatal(err)
	}

	if err := e.Update(); err != nil {
		t.Fatal(err)
	}
	if err := e.Update(); err != nil {
		t.Fatal(err)
	}

	if !e.OffRoute() {
		t.Fatal("expected off-route advisory")
	}
	if e.State() != StateNavigating {
		t.Errorf("off-route changed state: %s", e.State())
	}

	var advisories int
	for _, m := range speaker.messages {
		if strings.Contains(m.text, "off route") {
			advisories++
		}
	}
	if advisories != 1 {
		t.Errorf("got %d off-route advisories, want 1 (edge-triggered)", advisories)
	}
}

func TestEngine_StopResets(t *testing.T) {
	mock := gps.NewMock(geo.Coordinate{Lat: 51.5, Lon: -0.1})
	e, speaker := newTestEngine(mock)
	if err := e.Start(testRoute()); err != nil {
		t.Fatal(err)
	}

	before := len(speaker.messages)
	e.Stop()

	if e.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", e.State())
	}
	if len(speaker.messages) != before {
		t.Error("Stop emitted audio")
	}
	if _, ok := e.CurrentStep(); ok {
		t.Error("CurrentStep reports active route after Stop")
	}
}

func TestAnnouncementRounding(t *testing.T) {
	got := announcement(47.3, "Turn left")
	if got != "In 50 meters, Turn left" {
		t.Errorf("announcement(47.3) = %q", got)
	}
	if got := announcement(3.2, "Turn left"); got != "Turn left" {
		t.Errorf("announcement(3.2) = %q", got)
	}
}

func TestStripHTML(t *testing.T) {
	in := `Turn <b>right</b> onto <div style="font-size:0.9em">Park Lane</div>&nbsp;north`
	want := "Turn right onto Park Lane north"
	if got := StripHTML(in); got != want {
		t.Errorf("StripHTML = %q, want %q", got, want)
	}
}
