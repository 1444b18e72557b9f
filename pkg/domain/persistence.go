package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Creates generate identifiers, stamp
// timestamps, and apply documented defaults; CreateDonation, CreateRequest,
// and CreateActivity additionally emit one derived ActivityFeedItem before
// returning. Updates apply a mutator to a cloned record and fail with
// NotFoundError when the record is absent.
type Transaction interface {
	Snapshot() TransactionView

	CreateUser(User) (User, error)
	UpdateUser(id string, mutator func(*User) error) (User, error)
	CreateOrganization(Organization) (Organization, error)
	CreateDonation(Donation) (Donation, error)
	UpdateDonation(id string, mutator func(*Donation) error) (Donation, error)
	CreateRequest(Request) (Request, error)
	UpdateRequest(id string, mutator func(*Request) error) (Request, error)
	CreateActivity(Activity) (Activity, error)
	UpdateActivity(id string, mutator func(*Activity) error) (Activity, error)
	CreateVolunteerRegistration(VolunteerRegistration) (VolunteerRegistration, error)
	CreateMatch(Match) (Match, error)
	CreatePayment(Payment) (Payment, error)
	UpdatePayment(id string, mutator func(*Payment) error) (Payment, error)
	CreateNotification(Notification) (Notification, error)
	CreateActivityFeedItem(ActivityFeedItem) (ActivityFeedItem, error)

	// MarkNotificationRead flips the read flag. A miss is a silent no-op,
	// asymmetric with the update operations above.
	MarkNotificationRead(id string)

	FindUser(id string) (User, bool)
	// FindUserByEmail matches case-insensitively; when several users share an
	// email, the earliest-created one is returned.
	FindUserByEmail(email string) (User, bool)
	FindDonation(id string) (Donation, bool)
	FindRequest(id string) (Request, bool)
	FindActivity(id string) (Activity, bool)
	FindPayment(id string) (Payment, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// list queries. All returned records are clones; callers may mutate them
// freely without affecting store state.
type TransactionView interface {
	ListUsers() []User
	ListOrganizations() []Organization
	ListDonations(DonationFilter) []Donation
	ListRequests(RequestFilter) []Request
	ListActivities(ActivityFilter) []Activity
	ListVolunteerRegistrations(volunteerID string) []VolunteerRegistration
	ListMatches(userID string) []Match
	ListActivityFeed(limit int) []ActivityFeedItem
	ListNotifications(userID string) []Notification
	ListOrganizationsByLocation(GeoFilter) []Organization
	FindUser(id string) (User, bool)
	FindDonation(id string) (Donation, bool)
	FindRequest(id string) (Request, bool)
	FindActivity(id string) (Activity, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers, so a
// durable implementation can substitute for the in-memory one without
// touching callers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error

	GetUser(id string) (User, bool)
	// GetUserByEmail matches case-insensitively; when several users share an
	// email, the earliest-created one is returned.
	GetUserByEmail(email string) (User, bool)
	GetDonation(id string) (Donation, bool)
	GetRequest(id string) (Request, bool)
	GetActivity(id string) (Activity, bool)
	GetPayment(id string) (Payment, bool)

	ListDonations(DonationFilter) []Donation
	ListRequests(RequestFilter) []Request
	ListActivities(ActivityFilter) []Activity
	ListVolunteerRegistrations(volunteerID string) []VolunteerRegistration
	ListMatches(userID string) []Match
	ListActivityFeed(limit int) []ActivityFeedItem
	ListNotifications(userID string) []Notification
	ListOrganizationsByLocation(GeoFilter) []Organization
}
