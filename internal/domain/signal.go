package domain

import "time"

// SignalKind tags the type of a market signal.
type SignalKind string

// Signal kind constants
const (
	SignalKindPrice     SignalKind = "price"
	SignalKindVolume    SignalKind = "volume"
	SignalKindSentiment SignalKind = "sentiment"
)

// Signal is one observation handed to strategy evaluation.
// Strategy evaluation is a pure function of the signal batch.
type Signal struct {
	Kind      SignalKind
	Market    string
	Value     float64 // price for price signals, score for sentiment
	Change24h float64 // percent move over 24h, price signals only
	Volume    float64
	Timestamp time.Time
}
