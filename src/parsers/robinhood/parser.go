package robinhood

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/username/wheeltracker/src/models"
)

// ErrEmptyCSV is returned when the file parses but carries no data rows.
var ErrEmptyCSV = errors.New("CSV file is empty")

// MissingColumnsError reports required headers absent from the file.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing required columns: %s", strings.Join(e.Columns, ", "))
}

// Record pairs the raw field values of one data row with the list of
// required columns that row was too short to include. A non-empty
// Missing list fails the row's shape check downstream.
type Record struct {
	Row     models.RawActivityRow
	Missing []string
}

// Parser reads Robinhood activity exports.
type Parser struct{}

// NewParser creates a new instance of the Robinhood activity parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a Robinhood activity CSV into Records keyed by the header
// row. Quoting is lenient and rows may have uneven field counts; both
// are common in hand-edited exports. It fails only on structural
// problems: an unreadable header, no data rows, or missing required
// columns.
func (p *Parser) Parse(file io.Reader) ([]Record, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record
	reader.LazyQuotes = true    // Tolerate stray quote characters

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("robinhood parser: failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("robinhood parser: failed to read all CSV records: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyCSV
	}

	var missing []string
	for _, col := range models.RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	out := make([]Record, 0, len(records))
	for _, record := range records {
		rec := Record{
			Row: models.RawActivityRow{
				ActivityDate: field(record, index, models.ColActivityDate),
				ProcessDate:  field(record, index, models.ColProcessDate),
				SettleDate:   field(record, index, models.ColSettleDate),
				Instrument:   field(record, index, models.ColInstrument),
				Description:  field(record, index, models.ColDescription),
				TransCode:    field(record, index, models.ColTransCode),
				Quantity:     field(record, index, models.ColQuantity),
				Price:        field(record, index, models.ColPrice),
				Amount:       field(record, index, models.ColAmount),
			},
		}
		for _, col := range models.RequiredColumns {
			if index[col] >= len(record) {
				rec.Missing = append(rec.Missing, col)
			}
		}
		out = append(out, rec)
	}

	return out, nil
}

// field returns the named column of a record, or "" when the column is
// not in the header or the record is too short to reach it.
func field(record []string, index map[string]int, col string) string {
	i, ok := index[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
