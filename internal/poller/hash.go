package poller

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// rowSeparator joins normalized field values before hashing. The unit
// separator control character is not expected inside spreadsheet-like data.
const rowSeparator = "\x1f"

// RowHash fingerprints one record's content. Values are normalized first so
// cosmetic differences (surrounding whitespace, null versus empty) do not
// register as changes, while field order still does.
func RowHash(values []string) string {
	normalized := make([]string, len(values))
	for i, v := range values {
		normalized[i] = strings.TrimSpace(v)
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, rowSeparator)))
	return hex.EncodeToString(sum[:])
}
