package models

import (
	"strings"

	"github.com/goccy/go-json"
)

// Email is a validated, trimmed email address.
type Email struct {
	address string
}

func NewEmail(address string) (Email, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Email{}, Errorf(KindValidation, "email cannot be empty")
	}
	if !strings.Contains(address, "@") {
		return Email{}, Errorf(KindValidation, "email must contain @")
	}
	return Email{address: address}, nil
}

func (e Email) String() string {
	return e.address
}

func (e Email) IsZero() bool {
	return e.address == ""
}

func (e Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.address)
}
