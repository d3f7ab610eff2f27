package domain

import "time"

// Customer owns orders once assigned. Sub is the identity-provider subject;
// RFIDToken is an optional card token used for desk lookups. Both are unique
// when set.
type Customer struct {
	ID        string
	Key       string
	Name      string
	Email     string
	Sub       string
	RFIDToken string
	CreatedAt time.Time
}

// Valid reports whether the customer has the required fields.
func (c Customer) Valid() bool {
	return c.Name != "" && c.Email != ""
}
