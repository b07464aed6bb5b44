package model

import (
	"fmt"
	"strings"
	"time"
)

// Business is a named cost/profit center to which transactions are attributed.
type Business struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
}

// Validate checks that the business is well-formed for persistence.
func (b *Business) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("business name is required")
	}
	return nil
}
