package model

import "time"

// OgpRow is the persisted result of one generation, keyed by execution id
// and readable only by UserID.
type OgpRow struct {
	ID          string `json:"id"`
	ExecutionID string `json:"executionId"`
	UserID      string `json:"userId"`
	// EncryptedContent is the JSON encoding of RowContent.
	EncryptedContent string    `json:"encryptedContent"`
	CreatedAt        time.Time `json:"createdAt"`
}

// RowContent is the payload stored in OgpRow.EncryptedContent.
type RowContent struct {
	URL      string   `json:"url"`
	Meta     Metadata `json:"meta"`
	OgpImage *string  `json:"ogpImage"`
}
