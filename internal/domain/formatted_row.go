package domain

// ColumnCount is the number of columns in the exported CSV.
const ColumnCount = 15

// CSVHeader lists the exported column titles in file order.
var CSVHeader = [ColumnCount]string{
	"BRAND",
	"SOURCE",
	"GENDER",
	"LAST NAME",
	"FIRST NAME",
	"EMAIL",
	"LANGUAGE",
	"COLLECT DATE",
	"BIRTHDATE",
	"ADDRESS 1",
	"ADDRESS 2",
	"CITY",
	"ZIPCODE",
	"COUNTRY",
	"CHOSEN_COUNTRY",
}

// FormattedRow holds one output line. A nil entry is a null value.
type FormattedRow [ColumnCount]*string

// Strings renders the row for a CSV encoder, mapping null to an empty field.
func (r FormattedRow) Strings() []string {
	out := make([]string, ColumnCount)
	for i, value := range r {
		if value != nil {
			out[i] = *value
		}
	}
	return out
}
