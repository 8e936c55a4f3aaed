package pipeline

import (
	"context"
	"fmt"
	"time"

	"worksync/internal"
	"worksync/internal/util"
)

// JobAPI is the slice of the simPRO client the upload loop needs.
type JobAPI interface {
	ContactAPI
	CreateSite(ctx context.Context, name, address, city, postcode string, contactID int) (int, error)
	CreateJob(ctx context.Context, siteID, contactID int, name string, date time.Time, notes string, visit int) (int, error)
	AddJobCharge(ctx context.Context, jobID int, description string, total float64) error
}

// Service runs the per-row upload loop: resolve contact, create site,
// create job, attach charge. Rows are processed strictly in sheet order,
// one at a time; every failure past column mapping is row-scoped.
type Service struct {
	api      JobAPI
	resolver *Resolver
}

func NewService(api JobAPI, resolver *Resolver) *Service {
	return &Service{api: api, resolver: resolver}
}

type Report struct {
	RowsTotal   int
	RowsSkipped int
	JobsCreated int
	Charges     []internal.ChargeRecord
	ChargeTotal float64
}

type pendingRow struct {
	order internal.WorkOrderRow
	date  time.Time
	key   string
}

// Run processes the projected rows. Dates are parsed up front so the
// daily job counts cover the whole sheet before the first job is
// created; the flat multi-job rate depends on knowing, at row one, how
// many jobs the contact has that day in total.
func (s *Service) Run(ctx context.Context, rows []internal.WorkOrderRow) Report {
	report := Report{RowsTotal: len(rows)}

	pending := make([]pendingRow, 0, len(rows))
	for _, order := range rows {
		date, err := util.ParseDayFirst(order.DateRaw)
		if err != nil {
			fmt.Printf("skipping row %d (%s %s): invalid date %q\n", order.RowNumber, order.FirstName, order.LastName, order.DateRaw)
			report.RowsSkipped++
			continue
		}
		iso := date.Format("2006-01-02")
		pending = append(pending, pendingRow{
			order: order,
			date:  date,
			key:   util.DayKey(order.FirstName, order.LastName, iso),
		})
	}

	dailyJobs := map[string]int{}
	for _, p := range pending {
		dailyJobs[p.key]++
	}

	scheduled := map[int]int{}
	for _, p := range pending {
		order := p.order

		contact, err := s.resolver.Resolve(ctx, order.FirstName, order.LastName, order.Mobile)
		if err != nil {
			fmt.Printf("skipped contact creation for %s %s: %v\n", order.FirstName, order.LastName, err)
			report.RowsSkipped++
			continue
		}

		siteID, err := s.api.CreateSite(ctx, order.JobName, order.Address, order.City, order.Postcode, contact.ID)
		if err != nil {
			fmt.Printf("site creation failed for job %s (%s %s): %v\n", order.JobName, order.FirstName, order.LastName, err)
			report.RowsSkipped++
			continue
		}

		notes := BuildNotes(order.Shutter, order.LockType)
		jobID, err := s.api.CreateJob(ctx, siteID, contact.ID, order.JobName, p.date, notes, scheduled[contact.ID])
		if err != nil {
			fmt.Printf("job failed: %s for %s %s: %v\n", order.JobName, order.FirstName, order.LastName, err)
			report.RowsSkipped++
			continue
		}
		scheduled[contact.ID]++
		report.JobsCreated++
		fmt.Printf("job created: %s for %s %s\n", order.JobName, order.FirstName, order.LastName)

		total, description := ComputeCharge(ChargeInput{
			DailyJobs:  dailyJobs[p.key],
			VisitOfRun: scheduled[contact.ID],
			Shutter:    order.Shutter,
		})
		if total <= 0 {
			continue
		}

		if err := s.api.AddJobCharge(ctx, jobID, description, total); err != nil {
			// The job stands even when its charge cannot be attached.
			fmt.Printf("charge could not be added to job %s: %v\n", order.JobName, err)
			continue
		}
		fmt.Printf("charge added to job %s: %s | total £%.2f\n", order.JobName, description, total)

		report.Charges = append(report.Charges, internal.ChargeRecord{
			Contact:     order.FirstName + " " + order.LastName,
			JobName:     order.JobName,
			Date:        p.date.Format("2006-01-02"),
			Description: description,
			Total:       total,
		})
		report.ChargeTotal += total
	}

	return report
}
