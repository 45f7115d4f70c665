package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeAgentID computes a deterministic agent_id using SHA256.
// Formula: SHA256(user_id|wallet_address|created_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeAgentID(userID, walletAddress string, createdAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", userID, walletAddress, createdAtMs)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
