package common

import (
	"github.com/google/uuid"
)

// NewProductID generates a unique product record ID with the "prod_" prefix
// Format: prod_<uuid>
func NewProductID() string {
	return "prod_" + uuid.New().String()
}

// NewMessageID generates a unique chat message ID with the "msg_" prefix
// Format: msg_<uuid>
func NewMessageID() string {
	return "msg_" + uuid.New().String()
}
