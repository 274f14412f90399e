package service

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint identifies one blob version across assessments so a finding
// marked as a false positive stays suppressed on later runs
func Fingerprint(fullName, blobPath, sha string) string {
	sum := sha256.Sum256([]byte(fullName + ":" + blobPath + ":" + sha))
	return hex.EncodeToString(sum[:])
}
