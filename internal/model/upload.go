package model

import "time"

// UploadEntry is one row of the upload history side file. It is an audit
// record only and never feeds the ledger.
type UploadEntry struct {
	Filename     string    `json:"filename"`
	Bank         string    `json:"bank"`
	Transactions int       `json:"transactions"`
	Currency     string    `json:"currency"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Source       string    `json:"source"`
}
