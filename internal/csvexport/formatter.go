package csvexport

import (
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/formexport/internal/domain"
)

const (
	brand         = "NESTLE"
	source        = "CCSD World Cup 2018"
	country       = "CH"
	genderMale    = "1"
	genderOther   = "2"
	collectLayout = "02-01-2006 15:04:05"
)

// FormatRow maps a submission record onto the fixed export columns.
// Optional fields that are empty or absent become null, never "".
func FormatRow(record domain.Record, loc *time.Location) domain.FormattedRow {
	if loc == nil {
		loc = time.UTC
	}
	langcode := record.Get(domain.FieldLangcode)
	return domain.FormattedRow{
		literal(brand),
		literal(source),
		gender(record.Get(domain.FieldGender)),
		optional(record, domain.FieldSurname),
		optional(record, domain.FieldName),
		optional(record, domain.FieldEmail),
		&langcode,
		collectDate(record.Get(domain.FieldCreated), loc),
		optional(record, domain.FieldBirthdate),
		optional(record, domain.FieldAddress),
		optional(record, domain.FieldAddress1),
		optional(record, domain.FieldCity),
		optional(record, domain.FieldPostcode),
		literal(country),
		optional(record, domain.FieldChosenCountry),
	}
}

func literal(value string) *string {
	return &value
}

func gender(value string) *string {
	if value == "Male" {
		return literal(genderMale)
	}
	return literal(genderOther)
}

// optional returns nil for absent values and for the blank values "" and "0".
func optional(record domain.Record, key string) *string {
	value, ok := record[key]
	if !ok || value == "" || value == "0" {
		return nil
	}
	return &value
}

// collectDate always renders a date. Input is read as a leading integer, so
// garbage or an absent value becomes the epoch.
func collectDate(raw string, loc *time.Location) *string {
	return literal(time.Unix(leadingInt(raw), 0).In(loc).Format(collectLayout))
}

func leadingInt(raw string) int64 {
	raw = strings.TrimLeft(raw, " \t\n\r\v\f")
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	value, err := strconv.ParseInt(raw[:end], 10, 64)
	if err != nil {
		return 0
	}
	return value
}
