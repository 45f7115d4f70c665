package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePermissionID computes a deterministic permission_id using SHA256.
// Formula: SHA256(agent_id|wallet_address|created_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputePermissionID(agentID, walletAddress string, createdAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", agentID, walletAddress, createdAtMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputePositionID computes a deterministic position_id using SHA256.
// Formula: SHA256(agent_id|market|opened_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputePositionID(agentID, market string, openedAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", agentID, market, openedAtMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
