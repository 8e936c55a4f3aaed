package sheet

import (
	"fmt"
	"strings"

	"worksync/internal/util"
)

// Logical field names, in the order the work-order export lays them out.
const (
	ColFirstName    = "W/O First Name"
	ColLastName     = "W/O Last Name"
	ColMobile       = "W/O Mobile"
	ColContract     = "Contract Number"
	ColDateRequired = "Date Required"
	ColAddress      = "Address Of Visit"
	ColCity         = "City of Visit"
	ColPostcode     = "Postcode"
	ColShutter      = "Shutter required y/n"
	ColLockType     = "Lock type"
)

var ExpectedColumns = []string{
	ColFirstName, ColLastName, ColMobile, ColContract, ColDateRequired,
	ColAddress, ColCity, ColPostcode, ColShutter, ColLockType,
}

// MapColumns resolves each expected logical field to the most similar
// sheet header. Scoring is case-insensitive; ties keep the earliest
// header so the mapping is deterministic. Any field whose best score is
// below the threshold fails the whole upload before row processing.
func MapColumns(headers []string, threshold int) (map[string]string, error) {
	out := make(map[string]string, len(ExpectedColumns))

	for _, field := range ExpectedColumns {
		best := ""
		bestScore := -1
		for _, header := range headers {
			score := util.Ratio(strings.ToLower(header), strings.ToLower(field))
			if score > bestScore {
				best = header
				bestScore = score
			}
		}
		if bestScore < threshold {
			return nil, fmt.Errorf("column %q not found with high confidence (best match %q scored %d)", field, best, bestScore)
		}
		out[field] = best
	}

	return out, nil
}
