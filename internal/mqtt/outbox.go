package mqtt

import (
	"slices"

	"github.com/rs/zerolog"
)

// msgKind identifies what a pending message carries.
type msgKind int

const (
	kindState msgKind = iota
	kindCommand
	kindReport
	kindSystem
)

func (k msgKind) String() string {
	switch k {
	case kindState:
		return "state"
	case kindCommand:
		return "command"
	case kindReport:
		return "report"
	case kindSystem:
		return "system"
	}
	return "unknown"
}

// pendingMsg is a serialized message waiting for the broker.
type pendingMsg struct {
	kind     msgKind
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// supersedes reports whether m makes old pointless to deliver: a broker only
// keeps the latest retained message of a topic.
func (m pendingMsg) supersedes(old pendingMsg) bool {
	return m.retained && old.retained && m.topic == old.topic
}

// outbox holds messages published while the broker is unreachable.
// A retained message replaces the pending one on its topic, so a long outage
// leaves one schedule report rather than one per cycle. When the limit is
// reached the oldest transient message (state, command, heartbeat) goes
// first; retained messages are dropped only if nothing else is left.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs    []pendingMsg
	limit   int
	dropped int
	log     zerolog.Logger
}

func newOutbox(limit int, log zerolog.Logger) *outbox {
	if limit < 1 {
		limit = 1
	}
	return &outbox{limit: limit, log: log}
}

func (o *outbox) add(m pendingMsg) {
	if m.retained {
		o.msgs = slices.DeleteFunc(o.msgs, m.supersedes)
	}
	if len(o.msgs) >= o.limit {
		o.evict()
	}
	o.msgs = append(o.msgs, m)
}

func (o *outbox) evict() {
	i := slices.IndexFunc(o.msgs, func(m pendingMsg) bool { return !m.retained })
	if i < 0 {
		i = 0
	}
	if o.dropped == 0 {
		o.log.Warn().Int("limit", o.limit).Str("kind", o.msgs[i].kind.String()).Msg("mqtt outbox full, dropping oldest")
	}
	o.dropped++
	o.msgs = slices.Delete(o.msgs, i, i+1)
}

// flush returns the pending messages in publish order and empties the outbox.
func (o *outbox) flush() []pendingMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	if o.dropped > 0 {
		o.log.Warn().Int("dropped", o.dropped).Msg("mqtt messages lost while disconnected")
	}
	msgs := o.msgs
	o.msgs = nil
	o.dropped = 0
	return msgs
}

func (o *outbox) len() int {
	return len(o.msgs)
}
