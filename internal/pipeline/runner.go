package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"worksync/internal"
	"worksync/internal/config"
	"worksync/internal/matchstore"
	"worksync/internal/sheet"
	"worksync/internal/simpro"
	"worksync/internal/storage"
)

// RunFile uploads one work-order sheet end to end: map columns, acquire
// credentials, fetch the contact list, run the row loop, print the
// summary and record the run. Used by the upload command and the mail
// listener alike.
func RunFile(ctx context.Context, db *storage.DB, cfg config.Config, path, summaryOut string) (Report, error) {
	start := time.Now()

	headers, rows, err := sheet.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	columns, err := sheet.MapColumns(headers, cfg.HeaderMatchThreshold)
	if err != nil {
		return Report{}, err
	}
	orders := sheet.ProjectRows(headers, rows, columns)
	fmt.Printf("loaded %d work orders from %s\n", len(orders), filepath.Base(path))

	client, err := simpro.NewClient(cfg)
	if err != nil {
		return Report{}, err
	}
	companyID, err := client.CompanyID(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("company lookup: %w", err)
	}
	fmt.Printf("company id: %d\n", companyID)

	contacts, err := client.ListAllContacts(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("contact listing: %w", err)
	}
	fmt.Printf("retrieved %d contacts\n", len(contacts))

	// Refresh the local cache so dry runs see the same list.
	if err := db.ReplaceContacts(contacts); err != nil {
		fmt.Printf("could not refresh contact cache: %v\n", err)
	}

	matches, err := matchstore.Load(cfg.MatchFile)
	if err != nil {
		return Report{}, fmt.Errorf("load confirmed matches: %w", err)
	}

	resolver := NewResolver(client, contacts, matches, cfg.NameMatchThreshold)
	report := NewService(client, resolver).Run(ctx, orders)

	RenderChargeSummary(os.Stdout, report.Charges)
	if summaryOut != "" && len(report.Charges) > 0 {
		if err := ExportChargesToXLSX(report.Charges, summaryOut); err != nil {
			fmt.Printf("summary export failed: %v\n", err)
		}
	}

	if err := matches.Save(); err != nil {
		fmt.Printf("could not persist confirmed matches: %v\n", err)
	}

	runID, err := db.InsertUploadRun(traceID(), filepath.Base(path), report.RowsTotal, report.JobsCreated, report.RowsSkipped, report.ChargeTotal)
	if err != nil {
		fmt.Printf("could not record run: %v\n", err)
	} else if err := db.InsertCharges(runID, report.Charges); err != nil {
		fmt.Printf("could not record charges: %v\n", err)
	}

	fmt.Printf("upload done in %s: jobs=%d skipped=%d charges=%d\n",
		time.Since(start).Round(time.Millisecond), report.JobsCreated, report.RowsSkipped, len(report.Charges))
	return report, nil
}

// PreviewMatches is the dry-run: match every row against the cached
// contact list without touching the API.
func PreviewMatches(rows []internal.WorkOrderRow, contacts []internal.Contact, matches matchstore.Store, threshold int) (matched, missing int) {
	resolver := NewResolver(nil, contacts, matches, threshold)

	for _, order := range rows {
		if c, ok := resolver.MatchExact(order.FirstName, order.LastName); ok {
			fmt.Printf("row %d: %s %s -> exact match, contact %d\n", order.RowNumber, order.FirstName, order.LastName, c.ID)
			matched++
			continue
		}
		if c, ok := resolver.MatchFuzzy(order.FirstName, order.LastName); ok {
			fmt.Printf("row %d: %s %s -> fuzzy match, contact %d (%s %s)\n", order.RowNumber, order.FirstName, order.LastName, c.ID, c.GivenName, c.FamilyName)
			matched++
			continue
		}
		fmt.Printf("row %d: %s %s -> no match, would create\n", order.RowNumber, order.FirstName, order.LastName)
		missing++
	}

	return matched, missing
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
