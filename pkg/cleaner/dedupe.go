// pkg/cleaner/dedupe.go
package cleaner

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/EricBinekS/StatusDiario/pkg/model"
)

// BusinessKey joins the fields that identify an activity across imports.
// The actual start is the source clock read before any sentinel override.
func BusinessKey(a *model.Activity) string {
	return strings.Join([]string{
		a.Asset,
		a.ActivityType,
		a.ActivityDate.Format("2006-01-02"),
		a.SourceActualClock,
		a.ManagementUnit,
	}, "|")
}

// RowHash is the hex xxh3-128 digest of the business key
func RowHash(a *model.Activity) string {
	sum := xxh3.HashString128(BusinessKey(a)).Bytes()
	return hex.EncodeToString(sum[:])
}

// Dedupe assigns row hashes and keeps the first activity seen per hash,
// preserving input order. It returns the kept activities and the number dropped.
func Dedupe(activities []model.Activity) ([]model.Activity, int) {
	seen := make(map[string]struct{}, len(activities))
	kept := make([]model.Activity, 0, len(activities))

	for _, a := range activities {
		a.RowHash = RowHash(&a)
		if _, dup := seen[a.RowHash]; dup {
			continue
		}
		seen[a.RowHash] = struct{}{}
		kept = append(kept, a)
	}

	return kept, len(activities) - len(kept)
}

// AttachRowHashes stamps cleaning operations with the hash of the activity
// they belong to and drops operations whose row did not survive deduplication
func AttachRowHashes(ops []model.CleaningOperation, kept []model.Activity) []model.CleaningOperation {
	type rowKey struct {
		source string
		row    int
	}
	hashes := make(map[rowKey]string, len(kept))
	for _, a := range kept {
		hashes[rowKey{a.SourceID, a.SourceRow}] = a.RowHash
	}

	out := make([]model.CleaningOperation, 0, len(ops))
	for _, op := range ops {
		hash, ok := hashes[rowKey{op.SourceID, op.RowNumber}]
		if !ok {
			continue
		}
		op.RowHash = hash
		out = append(out, op)
	}
	return out
}
