package versioncontrol

import (
	"fmt"
	"regexp"
	"strconv"

	"apdvault/internal/domain/models/apd"
)

// versionNumberPattern matches the "vMAJOR.MINOR" label format.
var versionNumberPattern = regexp.MustCompile(`^v(\d+)\.(\d+)$`)

// FirstVersionNumber is the label assigned to a document's first version,
// and the fallback when existing labels cannot be parsed.
const FirstVersionNumber = "v1.0"

// NextVersionNumber derives the next version label from existing history.
// The minor component of the most recently created version is bumped; the
// major component is reserved for future branching semantics.
//
// Malformed labels silently reset numbering to v1.0 rather than erroring.
// Safe only because commits are serialized per document; a concurrent commit
// reading the same history would mint the same label.
func NextVersionNumber(history []apd.Version) string {
	if len(history) == 0 {
		return FirstVersionNumber
	}

	latest := history[0]
	for _, v := range history[1:] {
		if v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}

	m := versionNumberPattern.FindStringSubmatch(latest.VersionNumber)
	if m == nil {
		return FirstVersionNumber
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return FirstVersionNumber
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return FirstVersionNumber
	}

	return fmt.Sprintf("v%d.%d", major, minor+1)
}
