package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"worksync/internal/config"
	"worksync/internal/connectors"
	gmailconnector "worksync/internal/connectors/gmail"
	imapconnector "worksync/internal/connectors/imap"
	"worksync/internal/listener"
	"worksync/internal/matchstore"
	"worksync/internal/pipeline"
	"worksync/internal/sheet"
	"worksync/internal/simpro"
	"worksync/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "upload":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "work-order spreadsheet path")
		out := fs.String("out", "", "optional charge summary xlsx path")
		dryRun := fs.Bool("dry-run", false, "preview contact matches without calling the API")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		if *dryRun {
			must(preview(db, cfg, *file))
			return
		}

		report, err := pipeline.RunFile(context.Background(), db, cfg, *file, *out)
		must(err)
		fmt.Printf("upload done jobs=%d skipped=%d charges=%.2f\n", report.JobsCreated, report.RowsSkipped, report.ChargeTotal)
	case "contacts:sync":
		client, err := simpro.NewClient(cfg)
		must(err)
		contacts, err := client.ListAllContacts(context.Background())
		must(err)
		must(db.ReplaceContacts(contacts))
		fmt.Printf("contact sync complete: %d contacts\n", len(contacts))
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", cfg.MailListenerFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.InboxDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d sheets=%d\n", *provider, result.Fetched, result.Sheets)
	case "mail:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(context.Background()))
	case "export:charges":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int("run", 0, "upload run id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *runID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--run and --out are required"))
		}
		charges, err := db.GetChargeRows(*runID)
		must(err)
		if len(charges) == 0 {
			must(fmt.Errorf("no charges for run=%d", *runID))
		}
		must(pipeline.ExportChargesToXLSX(charges, *out))
		fmt.Printf("exported %d charges to %s\n", len(charges), *out)
	case "selftest":
		client, err := simpro.NewClient(cfg)
		must(err)
		status, err := client.Ping(context.Background())
		must(err)
		fmt.Printf("simPRO reachable: status=%d\n", status)
	default:
		usage()
		os.Exit(1)
	}
}

// preview resolves every row against the cached contact list without
// touching the API, so a sheet can be sanity-checked before upload.
func preview(db *storage.DB, cfg config.Config, path string) error {
	headers, rows, err := sheet.ReadFile(path)
	if err != nil {
		return err
	}
	columns, err := sheet.MapColumns(headers, cfg.HeaderMatchThreshold)
	if err != nil {
		return err
	}
	orders := sheet.ProjectRows(headers, rows, columns)

	contacts, err := db.ListContacts()
	if err != nil {
		return err
	}
	if len(contacts) == 0 {
		fmt.Println("contact cache is empty; run contacts:sync first")
	} else if syncedAt, err := db.GetMetadata(storage.ContactSyncKey); err == nil && syncedAt != nil {
		fmt.Printf("contact cache: %d contacts, last synced %s\n", len(contacts), *syncedAt)
	}

	matches, err := matchstore.Load(cfg.MatchFile)
	if err != nil {
		return err
	}

	matched, missing := pipeline.PreviewMatches(orders, contacts, matches, cfg.NameMatchThreshold)
	fmt.Printf("dry run done rows=%d matched=%d missing=%d\n", len(orders), matched, missing)
	return nil
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func usage() {
	fmt.Println("usage: worksync <command>")
	fmt.Println("commands:")
	fmt.Println("  upload --file=./orders.xlsx [--out=./out/charges.xlsx] [--dry-run]")
	fmt.Println("  contacts:sync")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=20")
	fmt.Println("  mail:listen")
	fmt.Println("  export:charges --run=1 --out=./out/charges.xlsx")
	fmt.Println("  selftest")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
