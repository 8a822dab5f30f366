package domain

import (
	"fmt"
	"strings"
	"time"
)

// Client is a recipient of follow-up emails.
type Client struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Company         *string           `json:"company,omitempty"`
	Phone           *string           `json:"phone,omitempty"`
	Language        string            `json:"language"`
	CustomFields    map[string]string `json:"custom_fields,omitempty"`
	LastInteraction *time.Time        `json:"last_interaction,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Validate checks the fields every stored client must carry.
func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidClient)
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidClient)
	}
	if at := strings.IndexByte(email, '@'); at <= 0 || at == len(email)-1 {
		return fmt.Errorf("%w: malformed email %q", ErrInvalidClient, email)
	}
	return nil
}

// CompanyName returns the company or an empty string.
func (c Client) CompanyName() string {
	if c.Company == nil {
		return ""
	}
	return *c.Company
}
