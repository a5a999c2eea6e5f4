package mqtt

import "log"

// pendingMsg is a serialized message waiting for the broker.
type pendingMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox keeps the most recent messages published while disconnected.
// When full, the oldest message is dropped. Not safe for concurrent use.
type outbox struct {
	msgs    []pendingMsg
	next    int // slot for the next push
	size    int
	dropped int // messages lost since the last drain
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{msgs: make([]pendingMsg, capacity)}
}

func (o *outbox) push(m pendingMsg) {
	if o.size == len(o.msgs) {
		if o.dropped == 0 {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", len(o.msgs))
		}
		o.dropped++
	} else {
		o.size++
	}
	o.msgs[o.next] = m
	o.next = (o.next + 1) % len(o.msgs)
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []pendingMsg {
	if o.size == 0 {
		return nil
	}
	out := make([]pendingMsg, 0, o.size)
	first := (o.next - o.size + len(o.msgs)) % len(o.msgs)
	for i := 0; i < o.size; i++ {
		out = append(out, o.msgs[(first+i)%len(o.msgs)])
	}
	if o.dropped > 0 {
		log.Printf("mqtt: %d messages were dropped while disconnected", o.dropped)
	}
	o.next, o.size, o.dropped = 0, 0, 0
	return out
}

func (o *outbox) len() int {
	return o.size
}
