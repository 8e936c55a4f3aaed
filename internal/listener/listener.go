package listener

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"worksync/internal/config"
	"worksync/internal/connectors"
	gmailconnector "worksync/internal/connectors/gmail"
	imapconnector "worksync/internal/connectors/imap"
	"worksync/internal/pipeline"
	"worksync/internal/storage"
)

// Service polls a mailbox for work-order spreadsheets and pushes each
// pending sheet through the upload pipeline.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("listener cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.InboxDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	uploaded, err := s.uploadPending(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("listener cycle done provider=%s fetched=%d sheets=%d uploaded=%d\n", provider, fetchResult.Fetched, fetchResult.Sheets, uploaded)
	return nil
}

// uploadPending runs the pipeline over every pending sheet. One bad
// sheet is marked failed and does not stop the rest of the batch.
func (s *Service) uploadPending(ctx context.Context) (int, error) {
	sheets, err := s.db.ListSheetsByStatus("pending", s.cfg.MailListenerFetchMax)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, sheet := range sheets {
		summaryOut := filepath.Join(s.cfg.OutputDir, "listener", fmt.Sprintf("%d_%s", sheet.ID, sheet.Filename))
		if _, err := pipeline.RunFile(ctx, s.db, s.cfg, sheet.Path, summaryOut); err != nil {
			fmt.Printf("sheet %d (%s) failed: %v\n", sheet.ID, sheet.Filename, err)
			_ = s.db.UpdateSheetStatus(sheet.ID, "failed")
			continue
		}
		_ = s.db.UpdateSheetStatus(sheet.ID, "uploaded")
		uploaded++
	}
	return uploaded, nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
