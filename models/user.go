package models

// User holds the structure of a document in the users collection.
// Phone is both the primary key and the file name of the document.
type User struct {
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Phone          string   `json:"phone"`
	HashedPassword string   `json:"hashedPassword,omitempty"`
	TOSAgreement   bool     `json:"tosAgreement"`
	Checks         []string `json:"checks,omitempty"`
}

// Public returns a copy of the user without the password digest
func (u User) Public() User {
	u.HashedPassword = ""
	return u
}

// HasCheck reports whether id is in the user's check list
func (u User) HasCheck(id string) bool {
	for _, c := range u.Checks {
		if c == id {
			return true
		}
	}
	return false
}
