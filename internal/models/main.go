// Package models defines the core data structures for identities and demands.
package models

import (
	"strings"
	"time"
)

// Role is the closed set of user roles known to the application.
type Role string

const (
	// RoleAgent is a requester: creates and tracks demands.
	RoleAgent Role = "agent"
	// RoleResponsable is an approver: approves or rejects pending demands.
	RoleResponsable Role = "responsable"
)

// ParseRole normalizes a raw role string to a Role.
// Returns false when the string names no known role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAgent:
		return RoleAgent, true
	case RoleResponsable:
		return RoleResponsable, true
	}
	return "", false
}

// Identity is the authenticated user's decoded profile.
// It is immutable once decoded from a token and replaced
// wholesale on login or logout.
type Identity struct {
	// ID is the unique identifier of the user.
	ID string `json:"id"`
	// Email is the login email address.
	Email string `json:"email"`
	// Name is the display name of the user.
	Name string `json:"name"`
	// Role is the user's role, lower-cased on decode.
	Role Role `json:"role"`
}

// User is a server-side account record with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Email is the login email address.
	Email string
	// Name is the display name of the user.
	Name string
	// Role is the user's role.
	Role Role
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
}

// Status is the lifecycle state of a demand.
type Status string

const (
	// StatusPending is the initial state of every demand.
	StatusPending Status = "pending"
	// StatusApproved is a terminal state.
	StatusApproved Status = "approved"
	// StatusRejected is a terminal state; it always carries a rejection comment.
	StatusRejected Status = "rejected"
)

// ParseStatus normalizes a raw status string to a Status.
// Returns false for anything outside the known set.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// Article is a line item on a demand with quantity and unit price.
type Article struct {
	// ID is assigned by the backend; zero before creation.
	ID int64 `json:"id,omitempty"`
	// Name is the article label.
	Name string `json:"name"`
	// Description holds free-form details about the article.
	Description string `json:"description"`
	// Quantity is the ordered amount, at least 1.
	Quantity int `json:"quantity"`
	// Price is the unit price, at least 0.01.
	Price float64 `json:"price"`
}

// LineTotal returns quantity times unit price.
func (a Article) LineTotal() float64 {
	return float64(a.Quantity) * a.Price
}

// Demand is an internal request for articles awaiting approval.
type Demand struct {
	// ID is the unique identifier assigned by the backend.
	ID int64 `json:"id"`
	// Title is the short label of the demand.
	Title string `json:"title"`
	// Description holds free-form details about the demand.
	Description string `json:"description"`
	// Articles is the ordered list of line items; non-empty for a submittable demand.
	Articles []Article `json:"articles"`
	// FileName is the original name of the optional attachment.
	FileName string `json:"fileName,omitempty"`
	// FileURL is where the optional attachment can be fetched.
	FileURL string `json:"fileUrl,omitempty"`
	// Status is the workflow state of the demand.
	Status Status `json:"status"`
	// CreatedAt is when the demand was created.
	CreatedAt time.Time `json:"createdAt"`
	// CreatedBy is the email of the creating agent.
	CreatedBy string `json:"createdBy"`
	// RejectionComment is set only when Status is StatusRejected.
	RejectionComment string `json:"rejectionComment,omitempty"`
}

// Total returns the sum of all line totals.
func (d Demand) Total() float64 {
	var total float64
	for _, a := range d.Articles {
		total += a.LineTotal()
	}
	return total
}

// CreateDemandRequest is the payload for creating or updating a demand.
type CreateDemandRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Articles    []Article `json:"articles"`
	// FilePath points at a local attachment to upload; empty means none.
	FilePath string `json:"-"`
}

// DemandFilters narrows a demand listing.
// Zero values mean "no filter" for the corresponding field.
type DemandFilters struct {
	Status Status
	Search string
	Page   int
	Limit  int
}
