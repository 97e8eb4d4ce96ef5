package robinhood

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/wheeltracker/src/models"
)

// Robinhood describes an option contract in free text as
// "AAPL 6/21/2024 Call $150.50": symbol, expiry, type, strike.
var optionDescriptionRe = regexp.MustCompile(`^([A-Z]+) (\d{1,2}/\d{1,2}/\d{4}) (Call|Put) \$(\d+(?:\.\d+)?)$`)

const activityDateFormat = "1/2/2006"

// RowFormatError marks a row whose required fields fail the shape check.
type RowFormatError struct {
	Detail string
}

func (e *RowFormatError) Error() string {
	return fmt.Sprintf("Invalid row format: %s", e.Detail)
}

// DescriptionFormatError marks a description that does not match the
// option contract grammar.
type DescriptionFormatError struct {
	Description string
}

func (e *DescriptionFormatError) Error() string {
	return fmt.Sprintf("Invalid option description format: %s", e.Description)
}

// ParseOptionDescription matches a description against the option
// contract grammar and extracts the typed attributes.
func ParseOptionDescription(desc string) (symbol string, expiration time.Time, optType models.OptionType, strike decimal.Decimal, err error) {
	matches := optionDescriptionRe.FindStringSubmatch(strings.TrimSpace(desc))
	if matches == nil {
		err = &DescriptionFormatError{Description: desc}
		return
	}

	expiration, dateErr := time.Parse(activityDateFormat, matches[2])
	if dateErr != nil {
		// Matched digits but not a real calendar date, e.g. 13/45/2024.
		err = &DescriptionFormatError{Description: desc}
		return
	}

	strike, strikeErr := decimal.NewFromString(matches[4])
	if strikeErr != nil {
		err = &DescriptionFormatError{Description: desc}
		return
	}

	symbol = matches[1]
	optType = models.OptionType(matches[3])
	return symbol, expiration, optType, strike, nil
}

// NormalizeRow converts a sell-to-open activity row into a ParsedOption:
// description grammar, numeric fields, and the derived premium
// (per-share price x 100 x contracts).
func NormalizeRow(row models.RawActivityRow) (models.ParsedOption, error) {
	symbol, expiration, optType, strike, err := ParseOptionDescription(row.Description)
	if err != nil {
		return models.ParsedOption{}, err
	}

	openDate, err := time.Parse(activityDateFormat, row.ActivityDate)
	if err != nil {
		return models.ParsedOption{}, fmt.Errorf("invalid activity date %q: %w", row.ActivityDate, err)
	}

	contracts, err := strconv.ParseInt(strings.TrimSpace(row.Quantity), 10, 64)
	if err != nil {
		return models.ParsedOption{}, fmt.Errorf("invalid quantity %q: %w", row.Quantity, err)
	}

	price, err := parsePrice(row.Price)
	if err != nil {
		return models.ParsedOption{}, fmt.Errorf("invalid price %q: %w", row.Price, err)
	}

	// Standard 100-share option multiplier; no rounding beyond the
	// precision already present in the parsed values.
	premium := price.Mul(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(contracts))

	return models.ParsedOption{
		Symbol:     symbol,
		OptionType: optType,
		Strike:     strike,
		Expiration: expiration,
		OpenDate:   openDate,
		OpenPrice:  price,
		Contracts:  contracts,
		Premium:    premium,
	}, nil
}

var priceCleaner = strings.NewReplacer("$", "", ",", "", "(", "", ")", "", " ", "")

// parsePrice strips currency, grouping and parenthesis characters before
// parsing. Parentheses are treated as formatting: "(2.50)" yields the
// positive magnitude 2.50.
func parsePrice(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(priceCleaner.Replace(s))
}
