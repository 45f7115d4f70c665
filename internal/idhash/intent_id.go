package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeIntentID computes a deterministic intent_id using SHA256.
// Formula: SHA256(agent_id|strategy_id|market|side|created_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeIntentID(
	agentID string,
	strategyID string,
	market string,
	side string,
	createdAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		agentID,
		strategyID,
		market,
		side,
		createdAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
