package domain

// Account identifies the user who requested an export.
type Account struct {
	ID          string `json:"id"`
	AccountName string `json:"account_name"`
	Email       string `json:"email"`
	Langcode    string `json:"langcode,omitempty"`
}
