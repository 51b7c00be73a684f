package protocol

// ReplayGuard remembers the highest sequence number seen from each sender.
// It is not safe for concurrent use.
type ReplayGuard struct {
	last map[Identity]uint64
}

func NewReplayGuard() *ReplayGuard {
	return &ReplayGuard{last: map[Identity]uint64{}}
}

// Accept reports whether e is newer than everything seen from its sender and
// records it if so. Unsequenced envelopes are never accepted. Only pass
// envelopes whose signature was verified, or a forger can burn sequence numbers.
func (g *ReplayGuard) Accept(e Envelope) bool {
	if e.Seq <= g.last[e.From] {
		return false
	}
	g.last[e.From] = e.Seq
	return true
}

// Observe records seq for from without checking it, e.g. when replaying a ledger.
func (g *ReplayGuard) Observe(from Identity, seq uint64) {
	if seq > g.last[from] {
		g.last[from] = seq
	}
}

// Last returns the highest sequence number seen from id.
func (g *ReplayGuard) Last(id Identity) uint64 {
	return g.last[id]
}
