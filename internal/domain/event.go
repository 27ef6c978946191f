package domain

import "time"

// Effect summaries recorded in the ledger. Entries are immutable once written.
const (
	EffectApplied    = "applied"
	EffectNoop       = "noop"
	EffectIgnored    = "ignored"
	EffectUnresolved = "unresolved"
)

// ProcessedEvent is an idempotency ledger entry: one row per gateway event id
// that has already produced (or been deliberately denied) an effect.
// May be garbage-collected once older than the gateway's redelivery window.
type ProcessedEvent struct {
	EventID     string
	Effect      string
	ProcessedAt time.Time
}
