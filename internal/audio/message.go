package audio

// Priority orders spoken messages; lower values play first.
type Priority int

const (
	PriorityEmergency    Priority = 1
	PrioritySocial       Priority = 2
	PriorityNavigational Priority = 3
	PriorityStatus       Priority = 4
)

func (p Priority) String() string {
	switch p {
	case PriorityEmergency:
		return "emergency"
	case PrioritySocial:
		return "social"
	case PriorityNavigational:
		return "navigational"
	case PriorityStatus:
		return "status"
	}
	return "unknown"
}

// Message is one utterance waiting for the playback worker. The
// ordering key is (Priority, seq): priority first, FIFO within a
// priority level.
type Message struct {
	Text      string
	Priority  Priority
	Interrupt bool

	seq uint64
}

type messageHeap []*Message

func (h messageHeap) Len() int { return len(h) }

func (h messageHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h messageHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *messageHeap) Push(x any) {
	*h = append(*h, x.(*Message))
}

func (h *messageHeap) Pop() any {
	old := *h
	n := len(old)
	msg := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return msg
}
