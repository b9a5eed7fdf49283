package models

import "time"

// Student is a persisted registration. Email and mobile are stored as
// AES-GCM ciphertext; the plaintext values exist only transiently during
// registration and admin display. Records are append-only: nothing in
// the registration flow updates them after insert.
type Student struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        []byte    `db:"email" json:"-"`
	Mobile       []byte    `db:"mobile" json:"-"`
	StudentClass string    `db:"student_class" json:"student_class"`
	Created      time.Time `db:"created" json:"created"`
	Modified     time.Time `db:"modified" json:"modified"`
}

// StudentFilter encapsulates paging parameters for the admin roster.
type StudentFilter struct {
	Search   string
	Page     int
	PageSize int
}

// RosterEntry is a student with contact fields decrypted for admin
// display. DecryptError carries a placeholder when the stored ciphertext
// could not be opened instead of failing the whole listing.
type RosterEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	StudentClass string    `json:"student_class"`
	Created      time.Time `json:"created"`
	Modified     time.Time `json:"modified"`
	DecryptError bool      `json:"decrypt_error,omitempty"`
}
