package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Digest returns a short fingerprint of every pattern in the set. Sets with
// identical patterns share a digest.
func (s Set) Digest() string {
	h := sha256.New()
	for _, e := range s.Sequence.Entries() {
		writeField(h, "sequence", e.Label, e.Pattern)
	}
	writeField(h, "others", s.Others.String())
	writeField(h, "delete", s.Delete.String())
	writeField(h, "manufacturer_delete", s.ManufacturerDelete.String())
	writeField(h, "protocol_others", s.ProtocolOthers.String())
	writeField(h, "uppercase_others", s.UppercaseOthers.String())
	writeField(h, "others_exact", s.OthersExact...)
	for _, fb := range s.Fallbacks {
		writeField(h, "fallback", fb.Vendor, fb.Field)
		for _, e := range fb.Table.Entries() {
			writeField(h, "fallback_sequence", e.Label, e.Pattern)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

func writeField(w io.Writer, kind string, values ...string) {
	fmt.Fprintf(w, "%s", kind)
	for _, v := range values {
		fmt.Fprintf(w, "\x00%d:%s", len(v), v)
	}
	fmt.Fprint(w, "\n")
}
