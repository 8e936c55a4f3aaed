package connectors

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhillyerd/enmime"

	"worksync/internal"
	"worksync/internal/storage"
)

// FetchService pulls mail from a connector and files every spreadsheet
// attachment into the inbox directory, recording each one in the sheet
// ledger as pending. Messages without spreadsheet attachments are
// fetched and ignored.
type FetchService struct {
	db        *storage.DB
	inboxDir  string
	connector MailConnector
}

type FetchResult struct {
	Fetched int
	Sheets  int
}

func NewFetchService(db *storage.DB, inboxDir string, connector MailConnector) *FetchService {
	return &FetchService{db: db, inboxDir: inboxDir, connector: connector}
}

func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		stored, err := s.storeAttachments(msg)
		if err != nil {
			return result, err
		}
		result.Sheets += stored
	}

	return result, nil
}

func (s *FetchService) storeAttachments(msg internal.FetchedMailMessage) (int, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(msg.Raw))
	if err != nil {
		return 0, fmt.Errorf("parse message %s: %w", msg.MessageID, err)
	}

	if err := os.MkdirAll(s.inboxDir, 0o755); err != nil {
		return 0, err
	}

	stored := 0
	for _, part := range envelope.Attachments {
		if !isSpreadsheet(part.FileName) {
			continue
		}

		hashBytes := sha256.Sum256(part.Content)
		hash := hex.EncodeToString(hashBytes[:])
		filename := filepath.Base(part.FileName)

		path := filepath.Join(s.inboxDir, hash[:12]+"_"+filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, part.Content, 0o644); err != nil {
				return stored, err
			}
		}

		row, err := s.db.UpsertSheet(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, filename, hash, path, "pending")
		if err != nil {
			return stored, err
		}
		stored++
		fmt.Printf("stored sheet %d: %s (from %s)\n", row.ID, filename, msg.From)
	}

	return stored, nil
}

func isSpreadsheet(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}
