// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by communitycore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityUser identifies a registered user record.
	EntityUser EntityType = "user"
	// EntityOrganization identifies an organization profile record.
	EntityOrganization EntityType = "organization"
	// EntityDonation identifies a donation offer record.
	EntityDonation EntityType = "donation"
	// EntityRequest identifies an aid request record.
	EntityRequest EntityType = "request"
	// EntityActivity identifies a volunteer activity record.
	EntityActivity EntityType = "activity"
	// EntityVolunteerRegistration identifies a volunteer signup record.
	EntityVolunteerRegistration EntityType = "volunteer_registration"
	// EntityMatch identifies a suggested match record.
	EntityMatch EntityType = "match"
	// EntityActivityFeedItem identifies a derived activity-feed record.
	EntityActivityFeedItem EntityType = "activity_feed_item"
	// EntityPayment identifies a payment record.
	EntityPayment EntityType = "payment"
	// EntityNotification identifies a user notification record.
	EntityNotification EntityType = "notification"
)

// DonationStatus enumerates donation workflow states. The store accepts any
// value on update; transition legality belongs to the business layer.
type DonationStatus string

const (
	DonationStatusActive    DonationStatus = "active"
	DonationStatusClaimed   DonationStatus = "claimed"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusExpired   DonationStatus = "expired"
)

// RequestStatus enumerates aid request workflow states.
type RequestStatus string

const (
	RequestStatusActive    RequestStatus = "active"
	RequestStatusFulfilled RequestStatus = "fulfilled"
	RequestStatusClosed    RequestStatus = "closed"
)

// ActivityStatus enumerates volunteer activity workflow states.
type ActivityStatus string

const (
	ActivityStatusActive    ActivityStatus = "active"
	ActivityStatusCompleted ActivityStatus = "completed"
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

// RegistrationStatus enumerates volunteer registration states.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"
	RegistrationStatusApproved RegistrationStatus = "approved"
	RegistrationStatusRejected RegistrationStatus = "rejected"
)

// MatchStatus enumerates match suggestion states.
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusDeclined MatchStatus = "declined"
)

// PaymentStatus enumerates payment states reported by the external gateway.
type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusCaptured  PaymentStatus = "captured"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Urgency grades an aid request.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// FeedItemType encodes which entity kind a feed item was derived from.
type FeedItemType string

const (
	FeedItemDonation FeedItemType = "donation"
	FeedItemRequest  FeedItemType = "request"
	// FeedItemVolunteer marks feed entries derived from volunteer activities.
	FeedItemVolunteer FeedItemType = "volunteer"
)

// MatchTargetKind discriminates the entity a match points at.
type MatchTargetKind string

const (
	MatchTargetNone     MatchTargetKind = ""
	MatchTargetDonation MatchTargetKind = "donation"
	MatchTargetRequest  MatchTargetKind = "request"
	MatchTargetActivity MatchTargetKind = "activity"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GeoPoint is a geographic coordinate with an optional human-readable address.
type GeoPoint struct {
	Address string  `json:"address,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// User represents a registered community member.
type User struct {
	Base
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	UserType     string    `json:"user_type"`
	Phone        *string   `json:"phone,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	Avatar       *string   `json:"avatar"`
	Location     *GeoPoint `json:"location,omitempty"`
	Verified     bool      `json:"verified"`
}

// Organization is a verified-or-pending organization profile owned by a user.
type Organization struct {
	Base
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Website     *string   `json:"website,omitempty"`
	Documents   []string  `json:"documents"`
	Verified    bool      `json:"verified"`
	Location    *GeoPoint `json:"location,omitempty"`
}

// Donation is an offer of goods, funds, or services posted by a donor.
type Donation struct {
	Base
	DonorID     string         `json:"donor_id"`
	RecipientID *string        `json:"recipient_id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Amount      *string        `json:"amount,omitempty"`
	Quantity    *int           `json:"quantity,omitempty"`
	Location    *GeoPoint      `json:"location,omitempty"`
	Images      []string       `json:"images"`
	Status      DonationStatus `json:"status"`
	ExpiryDate  *time.Time     `json:"expiry_date,omitempty"`
}

// Request is an appeal for aid posted by a requester. Monetary amounts are
// decimal strings to avoid float drift.
type Request struct {
	Base
	RequesterID      string        `json:"requester_id"`
	Type             string        `json:"type"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Urgency          Urgency       `json:"urgency"`
	TargetAmount     *string       `json:"target_amount,omitempty"`
	RaisedAmount     string        `json:"raised_amount"`
	TargetQuantity   *int          `json:"target_quantity,omitempty"`
	ReceivedQuantity int           `json:"received_quantity"`
	Location         *GeoPoint     `json:"location,omitempty"`
	Images           []string      `json:"images"`
	Status           RequestStatus `json:"status"`
	Deadline         *time.Time    `json:"deadline,omitempty"`
}

// Activity is a scheduled volunteer event.
type Activity struct {
	Base
	OrganizerID       string         `json:"organizer_id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Location          GeoPoint       `json:"location"`
	StartTime         time.Time      `json:"start_time"`
	EndTime           time.Time      `json:"end_time"`
	MaxVolunteers     *int           `json:"max_volunteers,omitempty"`
	CurrentVolunteers int            `json:"current_volunteers"`
	Skills            []string       `json:"skills"`
	Status            ActivityStatus `json:"status"`
}

// VolunteerRegistration links a volunteer to an activity.
type VolunteerRegistration struct {
	Base
	ActivityID  string             `json:"activity_id"`
	VolunteerID string             `json:"volunteer_id"`
	Status      RegistrationStatus `json:"status"`
	Message     *string            `json:"message,omitempty"`
}

// MatchTarget is the tagged reference a match points at. The zero value means
// the match carries no target; a non-empty kind requires a non-empty ID.
type MatchTarget struct {
	Kind MatchTargetKind `json:"kind"`
	ID   string          `json:"id,omitempty"`
}

// IsZero reports whether the target is unset.
func (t MatchTarget) IsZero() bool { return t.Kind == MatchTargetNone && t.ID == "" }

// Match is a heuristic pairing between a user and at most one target entity.
type Match struct {
	Base
	Target MatchTarget `json:"target"`
	UserID string      `json:"user_id"`
	Score  float64     `json:"score"`
	Reason *string     `json:"reason,omitempty"`
	Status MatchStatus `json:"status"`
}

// ActivityFeedItem is a derived feed entry emitted when donations, requests,
// or activities are created. Callers never author these directly.
type ActivityFeedItem struct {
	Base
	UserID      string            `json:"user_id"`
	Type        FeedItemType      `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
	Likes       int               `json:"likes"`
	Comments    int               `json:"comments"`
}

// Payment records an external gateway transaction between two users.
type Payment struct {
	Base
	PayerID     string        `json:"payer_id"`
	RecipientID string        `json:"recipient_id"`
	DonationID  *string       `json:"donation_id,omitempty"`
	RequestID   *string       `json:"request_id,omitempty"`
	Amount      string        `json:"amount"`
	OrderRef    *string       `json:"order_ref,omitempty"`
	PaymentRef  *string       `json:"payment_ref,omitempty"`
	Status      PaymentStatus `json:"status"`
}

// Notification is a per-user message; delivery is an external concern.
type Notification struct {
	Base
	UserID  string            `json:"user_id"`
	Type    string            `json:"type"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
	Read    bool              `json:"read"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate mutation kinds captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
)
