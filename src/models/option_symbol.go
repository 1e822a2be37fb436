package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OptionSymbol is an OCC-style option ticker, e.g. AAPL260616C00300000.
// Polygon prefixes these with "O:".
type OptionSymbol string

func (s OptionSymbol) NoPrefix() string {
	if strings.HasPrefix(string(s), "O:") {
		return string(s)[2:]
	}

	return string(s)
}

func (s OptionSymbol) WithPrefix() string {
	if strings.HasPrefix(string(s), "O:") {
		return string(s)
	}

	return "O:" + string(s)
}

// NewOptionSymbol constructs the OCC ticker for an option leg.
func NewOptionSymbol(underlying string, expiry time.Time, strike float64, optionType OptionType) (OptionSymbol, error) {
	if err := optionType.Validate(); err != nil {
		return "", fmt.Errorf("NewOptionSymbol: %w", err)
	}

	typeCode := "C"
	if optionType == OptionTypePut {
		typeCode = "P"
	}

	year := expiry.Year() % 100
	month := int(expiry.Month())
	day := expiry.Day()

	// Strike price encoded as 8 digits in thousandths
	strikePrice := fmt.Sprintf("%08d", int(strike*1000))

	ticker := fmt.Sprintf("%s%02d%02d%02d%s%s", strings.ToUpper(underlying), year, month, day, typeCode, strikePrice)

	return OptionSymbol(ticker), nil
}

// Components parses an OCC ticker back into its parts.
func (s OptionSymbol) Components() (underlying string, expiry time.Time, strike float64, optionType OptionType, err error) {
	raw := s.NoPrefix()
	if len(raw) < 16 {
		return "", time.Time{}, 0, "", fmt.Errorf("OptionSymbol.Components: symbol too short: %s", raw)
	}

	strikePart := raw[len(raw)-8:]
	typePart := raw[len(raw)-9 : len(raw)-8]
	datePart := raw[len(raw)-15 : len(raw)-9]
	underlying = raw[:len(raw)-15]

	strikeThousandths, err := strconv.Atoi(strikePart)
	if err != nil {
		return "", time.Time{}, 0, "", fmt.Errorf("OptionSymbol.Components: invalid strike %s: %v", strikePart, err)
	}
	strike = float64(strikeThousandths) / 1000.0

	expiry, err = time.Parse("060102", datePart)
	if err != nil {
		return "", time.Time{}, 0, "", fmt.Errorf("OptionSymbol.Components: invalid expiry %s: %v", datePart, err)
	}

	switch typePart {
	case "C":
		optionType = OptionTypeCall
	case "P":
		optionType = OptionTypePut
	default:
		return "", time.Time{}, 0, "", fmt.Errorf("OptionSymbol.Components: invalid option type: %s", typePart)
	}

	return underlying, expiry, strike, optionType, nil
}
