package models

import "github.com/leadgridhq/leadgrid/pkg/domain"

// ErrorResponse is the error envelope. Validation failures carry the full
// batch of per-field messages.
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

// LeadResponse wraps a single lead with a confirmation message.
type LeadResponse struct {
	Message string `json:"message,omitempty"`
	Lead    *Lead  `json:"lead"`
}

// DeleteLeadResponse echoes the removed record back to the caller.
type DeleteLeadResponse struct {
	Message     string `json:"message"`
	DeletedLead *Lead  `json:"deletedLead"`
}
