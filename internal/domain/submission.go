package domain

// WebformID identifies the webform whose submissions are exported.
const WebformID = "worldcup_vote"

// Field names stored in webform_submission_data for the exported webform.
const (
	FieldGender    = "worldcup_gender"
	FieldSurname   = "worldcup_surname"
	FieldName      = "worldcup_name"
	FieldEmail     = "worldcup_email"
	FieldBirthdate = "worldcup_birthdate"
	FieldAddress   = "worldcup_address"
	FieldAddress1  = "worldcup_address1"
	FieldCity      = "worldcup_city"
	FieldPostcode  = "worldcup_postcode"
	FieldVote      = "worldcup_vote"

	// Submission level values folded into the record.
	FieldLangcode      = "langcode"
	FieldCreated       = "created"
	FieldChosenCountry = "chosen_country"
)

// FieldRow is one key/value row of a submission joined with its parent submission.
type FieldRow struct {
	SubmissionID int64
	Name         string
	Value        string
	Langcode     string
	Created      int64
}

// Record is a flattened submission: every field row keyed by name plus the
// submission level langcode, created timestamp and optional chosen country.
type Record map[string]string

// Get returns the value stored for key, or "" when it is absent.
func (r Record) Get(key string) string {
	if r == nil {
		return ""
	}
	return r[key]
}
