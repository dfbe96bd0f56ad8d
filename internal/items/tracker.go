package items

import (
	"context"
	"log/slog"
	"time"

	"github.com/sightline-labs/sightline/internal/shared"
)

type TrackerConfig struct {
	ItemClasses      []string
	ContainerClasses []string
	IoUThreshold     float64
	ConfirmAfter     time.Duration
}

func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		ItemClasses: []string{
			"backpack", "handbag", "suitcase", "laptop",
			"cell phone", "book", "bottle", "cup", "remote",
		},
		ContainerClasses: []string{
			"dining table", "couch", "bed", "chair", "bench",
		},
		IoUThreshold: 0.3,
		ConfirmAfter: 3 * time.Second,
	}
}

// Confirmation reports an item that has stayed on a container long
// enough to be persisted.
type Confirmation struct {
	ItemClass string `json:"item_class"`
	Location  string `json:"location"`
}

type pairKey struct {
	item      string
	container string
}

type trackedPair struct {
	startTime time.Time
	confirmed bool
}

// Tracker confirms sustained item-on-container relationships across
// frames. It is not safe for concurrent use; callers run one frame at
// a time.
type Tracker struct {
	cfg        TrackerConfig
	store      *Store
	log        *slog.Logger
	itemSet    map[string]struct{}
	containers map[string]struct{}
	pairs      map[pairKey]*trackedPair
	now        func() time.Time
}

func NewTracker(cfg TrackerConfig, store *Store, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	t := &Tracker{
		cfg:        cfg,
		store:      store,
		log:        log.With("component", "items"),
		itemSet:    make(map[string]struct{}, len(cfg.ItemClasses)),
		containers: make(map[string]struct{}, len(cfg.ContainerClasses)),
		pairs:      make(map[pairKey]*trackedPair),
		now:        time.Now,
	}
	for _, c := range cfg.ItemClasses {
		t.itemSet[c] = struct{}{}
	}
	for _, c := range cfg.ContainerClasses {
		t.containers[c] = struct{}{}
	}
	return t
}

// Update ingests one frame's detections and returns the pairs newly
// confirmed by this frame. A pair absent from the frame loses its
// timer immediately.
func (t *Tracker) Update(ctx context.Context, detections []shared.Detection) ([]Confirmation, error) {
	var items, containers []shared.Detection
	for _, d := range detections {
		if _, ok := t.itemSet[d.Class]; ok {
			items = append(items, d)
		}
		if _, ok := t.containers[d.Class]; ok {
			containers = append(containers, d)
		}
	}

	now := t.now()
	active := make(map[pairKey]struct{})
	var confirmed []Confirmation

	for _, item := range items {
		for _, container := range containers {
			if !t.contained(item, container) {
				continue
			}

			key := pairKey{item: item.Class, container: container.Class}
			active[key] = struct{}{}

			pair, ok := t.pairs[key]
			if !ok {
				t.pairs[key] = &trackedPair{startTime: now}
				continue
			}
			if pair.confirmed || now.Sub(pair.startTime) < t.cfg.ConfirmAfter {
				continue
			}

			// Confirmed only once the write lands; a failed upsert
			// leaves the pair pending so the next frame retries.
			location := "on the " + key.container
			if err := t.store.Upsert(ctx, key.item, location); err != nil {
				return confirmed, err
			}
			pair.confirmed = true
			t.log.Info("item location confirmed", "item", key.item, "location", location)
			confirmed = append(confirmed, Confirmation{ItemClass: key.item, Location: location})
		}
	}

	for key := range t.pairs {
		if _, ok := active[key]; !ok {
			delete(t.pairs, key)
		}
	}

	return confirmed, nil
}

// contained is true when the boxes overlap past the IoU threshold or
// the item's center sits inside the container box.
func (t *Tracker) contained(item, container shared.Detection) bool {
	if shared.IoU(item.Box, container.Box) > t.cfg.IoUThreshold {
		return true
	}
	cx, cy := item.Box.Center()
	return container.Box.Contains(cx, cy)
}
