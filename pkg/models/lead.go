package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Source and status vocabularies for leads. Both are free-form enums with no
// transition graph: any status may move to any other status.
var (
	LeadSources  = []string{"website", "facebook_ads", "google_ads", "referral", "events", "other"}
	LeadStatuses = []string{"new", "contacted", "qualified", "lost", "won"}
)

// Lead is the central entity: a sales prospect owned by exactly one user.
// The monetary value is stored under the internal camelCase name and exposed
// on the wire under the snake_case alias.
type Lead struct {
	ID             bson.ObjectID  `json:"_id,omitempty" bson:"_id,omitempty"`
	FirstName      string         `json:"firstName" bson:"firstName"`
	LastName       string         `json:"lastName" bson:"lastName"`
	Email          string         `json:"email" bson:"email"`
	Phone          string         `json:"phone" bson:"phone"`
	Company        string         `json:"company" bson:"company"`
	City           string         `json:"city" bson:"city"`
	State          string         `json:"state" bson:"state"`
	Source         string         `json:"source" bson:"source"`
	Status         string         `json:"status" bson:"status"`
	Score          int            `json:"score" bson:"score"`
	LeadValue      float64        `json:"lead_value" bson:"leadValue"`
	LastActivityAt *time.Time     `json:"lastActivityAt" bson:"lastActivityAt"`
	IsQualified    bool           `json:"isQualified" bson:"isQualified"`
	CreatedBy      bson.ObjectID  `json:"createdBy,omitempty" bson:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt" bson:"updatedAt"`
}

// CreateLeadRequest carries a full lead payload for POST and PUT. Both the
// external alias lead_value and the internal leadValue key are accepted.
type CreateLeadRequest struct {
	FirstName      string     `json:"firstName" validate:"required,max=50"`
	LastName       string     `json:"lastName" validate:"required,max=50"`
	Email          string     `json:"email" validate:"required,email"`
	Phone          string     `json:"phone" validate:"required,leadphone"`
	Company        string     `json:"company" validate:"required,max=100"`
	City           string     `json:"city" validate:"required,max=50"`
	State          string     `json:"state" validate:"required,max=50"`
	Source         string     `json:"source" validate:"required,oneof=website facebook_ads google_ads referral events other"`
	Status         string     `json:"status" validate:"omitempty,oneof=new contacted qualified lost won"`
	Score          *int       `json:"score" validate:"required,min=0,max=100"`
	LeadValue      *float64   `json:"leadValue" validate:"omitempty,gte=0"`
	LeadValueAlias *float64   `json:"lead_value" validate:"omitempty,gte=0"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
	IsQualified    *bool      `json:"isQualified"`

	// ownerId in a payload is ignored, never an error
	CreatedBy string `json:"createdBy"`
}

// Value resolves the lead value from whichever key the client used,
// preferring the internal name when both are present.
func (r *CreateLeadRequest) Value() *float64 {
	if r.LeadValue != nil {
		return r.LeadValue
	}
	return r.LeadValueAlias
}

// UpdateLeadRequest carries a partial lead payload for PATCH. Every field is
// optional; fields present are validated exactly like on create.
type UpdateLeadRequest struct {
	FirstName      *string    `json:"firstName" validate:"omitempty,max=50"`
	LastName       *string    `json:"lastName" validate:"omitempty,max=50"`
	Email          *string    `json:"email" validate:"omitempty,email"`
	Phone          *string    `json:"phone" validate:"omitempty,leadphone"`
	Company        *string    `json:"company" validate:"omitempty,max=100"`
	City           *string    `json:"city" validate:"omitempty,max=50"`
	State          *string    `json:"state" validate:"omitempty,max=50"`
	Source         *string    `json:"source" validate:"omitempty,oneof=website facebook_ads google_ads referral events other"`
	Status         *string    `json:"status" validate:"omitempty,oneof=new contacted qualified lost won"`
	Score          *int       `json:"score" validate:"omitempty,min=0,max=100"`
	LeadValue      *float64   `json:"leadValue" validate:"omitempty,gte=0"`
	LeadValueAlias *float64   `json:"lead_value" validate:"omitempty,gte=0"`
	LastActivityAt *time.Time `json:"lastActivityAt"`
	IsQualified    *bool      `json:"isQualified"`

	CreatedBy string `json:"createdBy"`
}

// Value resolves the lead value from whichever key the client used.
func (r *UpdateLeadRequest) Value() *float64 {
	if r.LeadValue != nil {
		return r.LeadValue
	}
	return r.LeadValueAlias
}

// LeadListResponse is the page envelope for lead listings.
type LeadListResponse struct {
	Data       []Lead `json:"data"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Total      int64  `json:"total"`
	TotalPages int    `json:"totalPages"`
}

// GridRowsResponse is the envelope for the virtualized-grid datasource.
// LastRow is the index one past the final row when the end of the result set
// has been reached, or UnknownLastRow while more blocks remain.
type GridRowsResponse struct {
	Data    []Lead `json:"data"`
	LastRow int64  `json:"lastRow"`
	Total   int64  `json:"total"`
}

// UnknownLastRow is the sentinel reported while the end of the result set has
// not been reached yet.
const UnknownLastRow = -1
