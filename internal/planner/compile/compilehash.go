package compile

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// computeCompileHash derives the artifact-directory key from everything
// that determines compile output, so re-running the same inputs reuses the
// same directory instead of accumulating garbage. BLAKE3 is used here (not
// SHA-256) specifically because this hash has no contractual meaning
// outside this harness — unlike base_sha256 in the write-proposal contract,
// which is fixed to SHA-256 and must never change — so it is free to use
// the fastest hash the teacher's dependency set offers, grounded on the
// teacher's blake3.New/blake3.Sum256 CAS-hashing idiom in
// internal/attractor/engine/cxdb_sink.go.
func computeCompileHash(specText, templateText, model, reasoningEffort string) string {
	h := blake3.New()
	fmt.Fprintf(h, "spec\x00%s\x00template\x00%s\x00model\x00%s\x00reasoning\x00%s",
		specText, templateText, model, reasoningEffort)
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)[:16]
}
