package pipeline

import "strings"

// Callout tariffs, in GBP. The multi-job flat rate replaces the standard
// callout and is billed once per contact-day, on the first job scheduled
// that day; the shutter surcharge stacks on top of either tier.
const (
	standardCalloutAmount = 111.50
	multiJobDayAmount     = 223.00
	shutterAmount         = 137.50

	standardCalloutLabel = "Standard daily callout (£111.50)"
	multiJobDayLabel     = "Multiple job day flat rate (£223.00)"
	shutterLabel         = "Shutter charge (£137.50)"
)

// ChargeInput captures the state of the counters at the moment the
// row's job was created.
type ChargeInput struct {
	// DailyJobs is the total number of rows this contact has on the
	// row's date, from the pre-pass over the whole sheet.
	DailyJobs int
	// VisitOfRun is the contact's job count after this row's job was
	// created: 1 means this is the contact's first job of the run.
	VisitOfRun int
	// Shutter is the row's shutter flag.
	Shutter bool
}

// ComputeCharge derives the billing total and its description for one
// created job. A zero total means no charge line should be attached.
func ComputeCharge(in ChargeInput) (float64, string) {
	total := 0.0
	parts := make([]string, 0, 2)

	if in.DailyJobs == 1 {
		total += standardCalloutAmount
		parts = append(parts, standardCalloutLabel)
	} else if in.DailyJobs > 1 && in.VisitOfRun == 1 {
		total += multiJobDayAmount
		parts = append(parts, multiJobDayLabel)
	}

	if in.Shutter {
		total += shutterAmount
		parts = append(parts, shutterLabel)
	}

	return total, strings.Join(parts, " + ")
}

// BuildNotes assembles the job notes from the row's add-on fields.
func BuildNotes(shutter bool, lockType string) string {
	parts := make([]string, 0, 2)
	if shutter {
		parts = append(parts, "SHUTTER")
	}
	if strings.TrimSpace(lockType) != "" {
		parts = append(parts, "LOCKS: "+strings.TrimSpace(lockType))
	}
	return strings.Join(parts, " | ")
}
