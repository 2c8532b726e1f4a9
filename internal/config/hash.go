package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// FileFingerprint computes the BLAKE3 hash of a file. The daemon logs it at
// startup and exposes it in /v1/status so a drifted config is visible
// without shelling into the host.
func FileFingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config for fingerprint: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
