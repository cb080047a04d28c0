// Package activity keeps a local CSV record of what this client changed
// in the ledger: submissions, reversals and account edits.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/money"
)

// Action names what was done.
type Action string

const (
	ActionSubmit        Action = "submit"
	ActionReverse       Action = "reverse"
	ActionCreateAccount Action = "create_account"
	ActionRenameAccount Action = "rename_account"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	User      string
	Action    Action
	Code      string
	Amount    decimal.Decimal
	Details   string
}

// Header is the CSV header of an activity log.
const Header = "timestamp,user,action,code,amount,details"

const (
	numFields    = 6
	colTimestamp = 0
	colUser      = 1
	colAction    = 2
	colCode      = 3
	colAmount    = 4
	colDetails   = 5
)

// MarshalEntry converts an Entry to a CSV row. A zero amount is left
// blank.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colUser] = e.User
	row[colAction] = string(e.Action)
	row[colCode] = e.Code
	if !e.Amount.IsZero() {
		row[colAmount] = money.Format(e.Amount)
	}
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	amount := decimal.Zero
	if s := strings.TrimSpace(record[colAmount]); s != "" {
		amount, err = decimal.NewFromString(s)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing amount %q: %w", s, err)
		}
	}

	return Entry{
		Timestamp: ts,
		User:      record[colUser],
		Action:    Action(record[colAction]),
		Code:      record[colCode],
		Amount:    amount,
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to the log at path, creating the file, its
// directory and the header if needed.
func Append(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating activity log dir: %w", err)
		}
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries in the log at path. A missing file has no
// entries.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
