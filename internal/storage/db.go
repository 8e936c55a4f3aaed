package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"worksync/internal"
)

// ContactSyncKey is the metadata key recording when the contact cache
// was last replaced with a fresh API fetch.
const ContactSyncKey = "contacts.last_sync"

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS contacts (
  id INTEGER PRIMARY KEY,
  givenName TEXT NOT NULL,
  familyName TEXT NOT NULL,
  cellPhone TEXT,
  position INTEGER NOT NULL,
  lastSeenAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_contacts_names ON contacts(givenName, familyName);

CREATE TABLE IF NOT EXISTS sheets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  filename TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  path TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId, filename)
);

CREATE TABLE IF NOT EXISTS upload_runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  sourceFile TEXT NOT NULL,
  rowsTotal INTEGER NOT NULL,
  jobsCreated INTEGER NOT NULL,
  rowsSkipped INTEGER NOT NULL,
  chargeTotal REAL NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS charges (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  contact TEXT NOT NULL,
  jobName TEXT NOT NULL,
  jobDate TEXT NOT NULL,
  description TEXT NOT NULL,
  total REAL NOT NULL,
  FOREIGN KEY(runId) REFERENCES upload_runs(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceContacts swaps the cached contact list for a fresh fetch. The
// position column preserves the API's list order, which matching
// depends on.
func (d *DB) ReplaceContacts(contacts []internal.Contact) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM contacts`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO contacts (id, givenName, familyName, cellPhone, position, lastSeenAt)
VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range contacts {
		if _, err := stmt.Exec(c.ID, c.GivenName, c.FamilyName, c.CellPhone, i); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, ContactSyncKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	return tx.Commit()
}

func (d *DB) ListContacts() ([]internal.Contact, error) {
	rows, err := d.conn.Query(`
SELECT id, givenName, familyName, cellPhone
FROM contacts ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Contact
	for rows.Next() {
		var c internal.Contact
		if err := rows.Scan(&c.ID, &c.GivenName, &c.FamilyName, &c.CellPhone); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) UpsertSheet(provider, messageID, subject, sender, receivedAt, filename, hash, path, status string) (internal.SheetRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO sheets (provider, messageId, subject, sender, receivedAt, filename, hash, status, path)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId, filename) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  path=excluded.path,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, filename, hash, status, path)
	if err != nil {
		return internal.SheetRow{}, err
	}

	row, err := d.getSheet(provider, messageID, filename)
	if err != nil {
		return internal.SheetRow{}, err
	}
	if row == nil {
		return internal.SheetRow{}, errors.New("failed to upsert sheet")
	}
	return *row, nil
}

func (d *DB) getSheet(provider, messageID, filename string) (*internal.SheetRow, error) {
	var row internal.SheetRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, filename, hash, status, path
FROM sheets WHERE provider = ? AND messageId = ? AND filename = ?
`, provider, messageID, filename).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Filename, &row.Hash, &row.Status, &row.Path,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListSheetsByStatus(status string, limit int) ([]internal.SheetRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, filename, hash, status, path
FROM sheets WHERE status = ? ORDER BY receivedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SheetRow
	for rows.Next() {
		var row internal.SheetRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Filename, &row.Hash, &row.Status, &row.Path); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateSheetStatus(sheetID int, status string) error {
	_, err := d.conn.Exec(`UPDATE sheets SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, sheetID)
	return err
}

func (d *DB) InsertUploadRun(traceID, sourceFile string, rowsTotal, jobsCreated, rowsSkipped int, chargeTotal float64) (int64, error) {
	result, err := d.conn.Exec(`
INSERT INTO upload_runs (traceId, sourceFile, rowsTotal, jobsCreated, rowsSkipped, chargeTotal)
VALUES (?, ?, ?, ?, ?, ?)
`, traceID, sourceFile, rowsTotal, jobsCreated, rowsSkipped, chargeTotal)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (d *DB) InsertCharges(runID int64, charges []internal.ChargeRecord) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO charges (runId, contact, jobName, jobDate, description, total)
VALUES (?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range charges {
		if _, err := stmt.Exec(runID, c.Contact, c.JobName, c.Date, c.Description, c.Total); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetChargeRows(runID int) ([]internal.ChargeRecord, error) {
	rows, err := d.conn.Query(`
SELECT contact, jobName, jobDate, description, total
FROM charges WHERE runId = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ChargeRecord
	for rows.Next() {
		var c internal.ChargeRecord
		if err := rows.Scan(&c.Contact, &c.JobName, &c.Date, &c.Description, &c.Total); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
