package model

import "time"

// User is a registered shop customer.
type User struct {
	ID           string    `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     string    `json:"username,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// UserCreate carries the fields needed to register a user.
type UserCreate struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
}

// Form is one submission of the contact form.
type Form struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	ViaBot    bool      `json:"via_bot"`
	CreatedAt time.Time `json:"created_at"`
}

// FormCreate carries the fields of a new contact form submission.
type FormCreate struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	ViaBot bool   `json:"via_bot"`
}

// Lead tracks the CRM lead created for a user. BitrixID is nil until the
// lead has been pushed to the CRM.
type Lead struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BitrixID  *int64    `json:"bitrix_id,omitempty"`
	Synced    bool      `json:"synced"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats summarizes the user and lead tables.
type Stats struct {
	Users       int64 `json:"users"`
	Leads       int64 `json:"leads"`
	SyncedLeads int64 `json:"synced_leads"`
}
