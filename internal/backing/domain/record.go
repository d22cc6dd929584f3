package domain

import (
	"strings"
	"time"

	"github.com/dmehra2102/order-fulfillment/pkg/apperr"
)

const maxKeyLen = 255

// Record is a keyed value. Key is unique across records.
type Record struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.Key) == "" {
		return apperr.Validation("key is required")
	}
	if len(r.Key) > maxKeyLen {
		return apperr.Validation("key must be at most %d bytes, got %d", maxKeyLen, len(r.Key))
	}
	return nil
}
