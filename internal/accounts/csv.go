package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

const (
	numFields  = 6
	colCode    = 0
	colName    = 1
	colLevel   = 2
	colParent  = 3
	colDesc    = 4
	colBalance = 5
)

var header = []string{"code", "name", "level", "parent_code", "description", "balance"}

// ReadAccounts reads a chart-of-accounts CSV. The first row must be the
// header WriteAccounts produces; an empty input has no accounts.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV header: %w", err)
	}
	if !slices.Equal(first, header) {
		return nil, fmt.Errorf("unexpected accounts CSV header %q", first)
	}

	var accounts []model.Account
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return accounts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading accounts CSV: %w", err)
		}
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		accounts = append(accounts, acct)
	}
}

// WriteAccounts writes a chart-of-accounts CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colLevel] = string(acct.Level)
	row[colParent] = acct.ParentCode
	row[colDesc] = acct.Description
	row[colBalance] = acct.Balance.StringFixed(2)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	level := model.AccountLevel(record[colLevel])
	if !level.Valid() {
		return model.Account{}, fmt.Errorf("invalid level %q", record[colLevel])
	}

	balance := decimal.Zero
	if record[colBalance] != "" {
		var err error
		balance, err = decimal.NewFromString(record[colBalance])
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing balance %q: %w", record[colBalance], err)
		}
	}

	return model.Account{
		Code:        record[colCode],
		Name:        record[colName],
		Level:       level,
		ParentCode:  record[colParent],
		Description: record[colDesc],
		Balance:     balance,
	}, nil
}
