package pathutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// EmptyDigest is the SHA-256 hex digest of the empty byte sequence, the
// sentinel used as the base hash for files that do not yet exist.
var EmptyDigest = hashBytes(nil)

// ContentHash returns the SHA-256 hex digest of the file at path, or
// EmptyDigest if the file does not exist. Any other stat/read error is
// returned to the caller.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return EmptyDigest, nil
		}
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes returns the SHA-256 hex digest of b directly, used when content
// is already in memory (e.g. a WriteProposal's content field).
func HashBytes(b []byte) string {
	return hashBytes(b)
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
