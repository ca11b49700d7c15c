package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/model"
)

// Header is the CSV header of the ledger file.
const Header = "date,time,bank,type,merchant,category,amount_base,original_currency,original_amount,is_income"

const (
	numFields       = 10
	dateFormat      = "2006-01-02"
	colDate         = 0
	colTime         = 1
	colBank         = 2
	colType         = 3
	colMerchant     = 4
	colCategory     = 5
	colAmountBase   = 6
	colOrigCurrency = 7
	colOrigAmount   = 8
	colIsIncome     = 9
)

// headerAliases maps older column names onto current ones.
var headerAliases = map[string]string{
	"amount_gbp": "amount_base",
}

// ReadTransactions reads a ledger file. Columns are matched by header
// name, so files written with a different column order still load.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	index, err := columnIndex(records[0])
	if err != nil {
		return nil, err
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		row := make([]string, numFields)
		for col, src := range index {
			if src >= 0 && src < len(rec) {
				row[col] = rec[src]
			}
		}
		txn, err := UnmarshalTransaction(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// columnIndex maps each canonical column to its position in header, or -1.
func columnIndex(header []string) ([numFields]int, error) {
	var index [numFields]int
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}

	for col, name := range strings.Split(Header, ",") {
		i, ok := pos[name]
		if !ok {
			i = -1
		}
		index[col] = i
	}

	if index[colDate] < 0 || index[colAmountBase] < 0 {
		return index, fmt.Errorf("ledger header missing date or amount_base column: %q", header)
	}
	return index, nil
}

// WriteTransactions writes txns to w, including the header.
func WriteTransactions(w io.Writer, txns []model.Transaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, txn := range txns {
		if err := cw.Write(MarshalTransaction(txn)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalTransaction converts a Transaction to a CSV row. Amounts are
// written without rounding so a load after save yields identical values.
func MarshalTransaction(txn model.Transaction) []string {
	row := make([]string, numFields)
	row[colDate] = txn.Date.Format(dateFormat)
	row[colTime] = txn.Time
	row[colBank] = txn.Bank
	row[colType] = txn.Type
	row[colMerchant] = txn.Merchant
	row[colCategory] = txn.Category
	row[colAmountBase] = txn.AmountBase.String()
	row[colOrigCurrency] = txn.OriginalCurrency
	row[colOrigAmount] = txn.OriginalAmount.String()
	row[colIsIncome] = strconv.FormatBool(txn.IsIncome)
	return row
}

// UnmarshalTransaction converts a canonical CSV row to a Transaction.
func UnmarshalTransaction(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := parseDate(record[colDate])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := parseDecimal(record[colAmountBase])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount_base %q: %w", record[colAmountBase], err)
	}

	original, err := parseDecimal(record[colOrigAmount])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing original_amount %q: %w", record[colOrigAmount], err)
	}

	var income bool
	if s := strings.TrimSpace(record[colIsIncome]); s != "" {
		income, err = strconv.ParseBool(s)
		if err != nil {
			return model.Transaction{}, fmt.Errorf("parsing is_income %q: %w", s, err)
		}
	}

	return model.Transaction{
		Date:             date,
		Time:             record[colTime],
		Bank:             record[colBank],
		Type:             record[colType],
		Merchant:         record[colMerchant],
		Category:         record[colCategory],
		AmountBase:       amount,
		OriginalCurrency: record[colOrigCurrency],
		OriginalAmount:   original,
		IsIncome:         income,
	}, nil
}

// parseDate accepts YYYY-MM-DD, optionally followed by a midnight time
// component as written by some spreadsheet tools.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateFormat) {
		s = s[:len(dateFormat)]
	}
	return time.Parse(dateFormat, s)
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
