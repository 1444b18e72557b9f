// Package memory implements the authoritative in-memory persistent store for
// the communitycore domain. Durable backends wrap this store and snapshot its
// state after each successful transaction.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"communitycore/pkg/domain"
)

type (
	User                  = domain.User
	Organization          = domain.Organization
	Donation              = domain.Donation
	Request               = domain.Request
	Activity              = domain.Activity
	VolunteerRegistration = domain.VolunteerRegistration
	Match                 = domain.Match
	ActivityFeedItem      = domain.ActivityFeedItem
	Payment               = domain.Payment
	Notification          = domain.Notification
	Change                = domain.Change
	RulesEngine           = domain.RulesEngine
	Result                = domain.Result
	Transaction           = domain.Transaction
	TransactionView       = domain.TransactionView
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type memoryState struct {
	users         map[string]User
	organizations map[string]Organization
	donations     map[string]Donation
	requests      map[string]Request
	activities    map[string]Activity
	registrations map[string]VolunteerRegistration
	matches       map[string]Match
	feed          map[string]ActivityFeedItem
	payments      map[string]Payment
	notifications map[string]Notification
}

func newMemoryState() memoryState {
	return memoryState{
		users:         make(map[string]User),
		organizations: make(map[string]Organization),
		donations:     make(map[string]Donation),
		requests:      make(map[string]Request),
		activities:    make(map[string]Activity),
		registrations: make(map[string]VolunteerRegistration),
		matches:       make(map[string]Match),
		feed:          make(map[string]ActivityFeedItem),
		payments:      make(map[string]Payment),
		notifications: make(map[string]Notification),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.users {
		cloned.users[k] = cloneUser(v)
	}
	for k, v := range s.organizations {
		cloned.organizations[k] = cloneOrganization(v)
	}
	for k, v := range s.donations {
		cloned.donations[k] = cloneDonation(v)
	}
	for k, v := range s.requests {
		cloned.requests[k] = cloneRequest(v)
	}
	for k, v := range s.activities {
		cloned.activities[k] = cloneActivity(v)
	}
	for k, v := range s.registrations {
		cloned.registrations[k] = cloneRegistration(v)
	}
	for k, v := range s.matches {
		cloned.matches[k] = cloneMatch(v)
	}
	for k, v := range s.feed {
		cloned.feed[k] = cloneFeedItem(v)
	}
	for k, v := range s.payments {
		cloned.payments[k] = clonePayment(v)
	}
	for k, v := range s.notifications {
		cloned.notifications[k] = cloneNotification(v)
	}
	return cloned
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneUser(u User) User {
	cp := u
	cp.Phone = clonePtr(u.Phone)
	cp.Bio = clonePtr(u.Bio)
	cp.Avatar = clonePtr(u.Avatar)
	cp.Location = clonePtr(u.Location)
	return cp
}

func cloneOrganization(o Organization) Organization {
	cp := o
	cp.Description = clonePtr(o.Description)
	cp.Website = clonePtr(o.Website)
	cp.Documents = cloneStrings(o.Documents)
	cp.Location = clonePtr(o.Location)
	return cp
}

func cloneDonation(d Donation) Donation {
	cp := d
	cp.RecipientID = clonePtr(d.RecipientID)
	cp.Description = clonePtr(d.Description)
	cp.Amount = clonePtr(d.Amount)
	cp.Quantity = clonePtr(d.Quantity)
	cp.Location = clonePtr(d.Location)
	cp.Images = cloneStrings(d.Images)
	cp.ExpiryDate = clonePtr(d.ExpiryDate)
	return cp
}

func cloneRequest(r Request) Request {
	cp := r
	cp.TargetAmount = clonePtr(r.TargetAmount)
	cp.TargetQuantity = clonePtr(r.TargetQuantity)
	cp.Location = clonePtr(r.Location)
	cp.Images = cloneStrings(r.Images)
	cp.Deadline = clonePtr(r.Deadline)
	return cp
}

func cloneActivity(a Activity) Activity {
	cp := a
	cp.MaxVolunteers = clonePtr(a.MaxVolunteers)
	cp.Skills = cloneStrings(a.Skills)
	return cp
}

func cloneRegistration(r VolunteerRegistration) VolunteerRegistration {
	cp := r
	cp.Message = clonePtr(r.Message)
	return cp
}

func cloneMatch(m Match) Match {
	cp := m
	cp.Reason = clonePtr(m.Reason)
	return cp
}

func cloneFeedItem(f ActivityFeedItem) ActivityFeedItem {
	cp := f
	cp.Metadata = cloneStringMap(f.Metadata)
	return cp
}

func clonePayment(p Payment) Payment {
	cp := p
	cp.DonationID = clonePtr(p.DonationID)
	cp.RequestID = clonePtr(p.RequestID)
	cp.OrderRef = clonePtr(p.OrderRef)
	cp.PaymentRef = clonePtr(p.PaymentRef)
	return cp
}

func cloneNotification(n Notification) Notification {
	cp := n
	cp.Data = cloneStringMap(n.Data)
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc replaces the time provider. Intended for tests and for callers
// that need a frozen or stepping clock.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store
// state. Registered rules are evaluated against the mutated snapshot before
// commit; blocking violations abort with RuleViolationError.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes the transactional state for read queries inside fn.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateUser stores a new user within the transaction.
func (tx *transaction) CreateUser(u User) (User, error) {
	if u.ID == "" {
		u.ID = tx.store.newID()
	}
	if _, exists := tx.state.users[u.ID]; exists {
		return User{}, fmt.Errorf("user %q already exists", u.ID)
	}
	u.CreatedAt = tx.now
	u.UpdatedAt = tx.now
	tx.state.users[u.ID] = cloneUser(u)
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionCreate, After: cloneUser(u)})
	return cloneUser(u), nil
}

// UpdateUser mutates a user using the provided mutator function.
func (tx *transaction) UpdateUser(id string, mutator func(*User) error) (User, error) {
	current, ok := tx.state.users[id]
	if !ok {
		return User{}, domain.NotFoundError{Entity: domain.EntityUser, ID: id}
	}
	before := cloneUser(current)
	if err := mutator(&current); err != nil {
		return User{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.users[id] = cloneUser(current)
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionUpdate, Before: before, After: cloneUser(current)})
	return cloneUser(current), nil
}

// CreateOrganization stores a new organization profile.
func (tx *transaction) CreateOrganization(o Organization) (Organization, error) {
	if o.ID == "" {
		o.ID = tx.store.newID()
	}
	if _, exists := tx.state.organizations[o.ID]; exists {
		return Organization{}, fmt.Errorf("organization %q already exists", o.ID)
	}
	if o.Documents == nil {
		o.Documents = []string{}
	}
	o.CreatedAt = tx.now
	o.UpdatedAt = tx.now
	tx.state.organizations[o.ID] = cloneOrganization(o)
	tx.recordChange(Change{Entity: domain.EntityOrganization, Action: domain.ActionCreate, After: cloneOrganization(o)})
	return cloneOrganization(o), nil
}

// CreateDonation stores a donation and emits its derived feed item. The feed
// item exists before the call returns.
func (tx *transaction) CreateDonation(d Donation) (Donation, error) {
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.donations[d.ID]; exists {
		return Donation{}, fmt.Errorf("donation %q already exists", d.ID)
	}
	if d.Status == "" {
		d.Status = domain.DonationStatusActive
	}
	if d.Images == nil {
		d.Images = []string{}
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.donations[d.ID] = cloneDonation(d)
	tx.recordChange(Change{Entity: domain.EntityDonation, Action: domain.ActionCreate, After: cloneDonation(d)})

	description := ""
	if d.Description != nil {
		description = *d.Description
	}
	if _, err := tx.CreateActivityFeedItem(ActivityFeedItem{
		UserID:      d.DonorID,
		Type:        domain.FeedItemDonation,
		Title:       fmt.Sprintf("New donation: %s", d.Title),
		Description: description,
		Metadata:    map[string]string{"donation_id": d.ID, "type": d.Type},
	}); err != nil {
		return Donation{}, err
	}
	return cloneDonation(d), nil
}

// UpdateDonation mutates a donation using the provided mutator function.
func (tx *transaction) UpdateDonation(id string, mutator func(*Donation) error) (Donation, error) {
	current, ok := tx.state.donations[id]
	if !ok {
		return Donation{}, domain.NotFoundError{Entity: domain.EntityDonation, ID: id}
	}
	before := cloneDonation(current)
	if err := mutator(&current); err != nil {
		return Donation{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.donations[id] = cloneDonation(current)
	tx.recordChange(Change{Entity: domain.EntityDonation, Action: domain.ActionUpdate, Before: before, After: cloneDonation(current)})
	return cloneDonation(current), nil
}

// CreateRequest stores an aid request and emits its derived feed item.
func (tx *transaction) CreateRequest(r Request) (Request, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.requests[r.ID]; exists {
		return Request{}, fmt.Errorf("request %q already exists", r.ID)
	}
	if r.Urgency == "" {
		r.Urgency = domain.UrgencyMedium
	}
	if r.RaisedAmount == "" {
		r.RaisedAmount = "0"
	}
	if r.Status == "" {
		r.Status = domain.RequestStatusActive
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.requests[r.ID] = cloneRequest(r)
	tx.recordChange(Change{Entity: domain.EntityRequest, Action: domain.ActionCreate, After: cloneRequest(r)})

	if _, err := tx.CreateActivityFeedItem(ActivityFeedItem{
		UserID:      r.RequesterID,
		Type:        domain.FeedItemRequest,
		Title:       fmt.Sprintf("New request: %s", r.Title),
		Description: r.Description,
		Metadata:    map[string]string{"request_id": r.ID, "urgency": string(r.Urgency)},
	}); err != nil {
		return Request{}, err
	}
	return cloneRequest(r), nil
}

// UpdateRequest mutates a request using the provided mutator function.
func (tx *transaction) UpdateRequest(id string, mutator func(*Request) error) (Request, error) {
	current, ok := tx.state.requests[id]
	if !ok {
		return Request{}, domain.NotFoundError{Entity: domain.EntityRequest, ID: id}
	}
	before := cloneRequest(current)
	if err := mutator(&current); err != nil {
		return Request{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.requests[id] = cloneRequest(current)
	tx.recordChange(Change{Entity: domain.EntityRequest, Action: domain.ActionUpdate, Before: before, After: cloneRequest(current)})
	return cloneRequest(current), nil
}

// CreateActivity stores a volunteer activity and emits its derived feed item.
func (tx *transaction) CreateActivity(a Activity) (Activity, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.activities[a.ID]; exists {
		return Activity{}, fmt.Errorf("activity %q already exists", a.ID)
	}
	if a.Status == "" {
		a.Status = domain.ActivityStatusActive
	}
	if a.Skills == nil {
		a.Skills = []string{}
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.activities[a.ID] = cloneActivity(a)
	tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionCreate, After: cloneActivity(a)})

	if _, err := tx.CreateActivityFeedItem(ActivityFeedItem{
		UserID:      a.OrganizerID,
		Type:        domain.FeedItemVolunteer,
		Title:       fmt.Sprintf("New volunteer activity: %s", a.Title),
		Description: a.Description,
		Metadata:    map[string]string{"activity_id": a.ID, "location": a.Location.Address},
	}); err != nil {
		return Activity{}, err
	}
	return cloneActivity(a), nil
}

// UpdateActivity mutates an activity using the provided mutator function.
func (tx *transaction) UpdateActivity(id string, mutator func(*Activity) error) (Activity, error) {
	current, ok := tx.state.activities[id]
	if !ok {
		return Activity{}, domain.NotFoundError{Entity: domain.EntityActivity, ID: id}
	}
	before := cloneActivity(current)
	if err := mutator(&current); err != nil {
		return Activity{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.activities[id] = cloneActivity(current)
	tx.recordChange(Change{Entity: domain.EntityActivity, Action: domain.ActionUpdate, Before: before, After: cloneActivity(current)})
	return cloneActivity(current), nil
}

// CreateVolunteerRegistration stores a volunteer signup.
func (tx *transaction) CreateVolunteerRegistration(r VolunteerRegistration) (VolunteerRegistration, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.registrations[r.ID]; exists {
		return VolunteerRegistration{}, fmt.Errorf("volunteer registration %q already exists", r.ID)
	}
	if r.Status == "" {
		r.Status = domain.RegistrationStatusPending
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.registrations[r.ID] = cloneRegistration(r)
	tx.recordChange(Change{Entity: domain.EntityVolunteerRegistration, Action: domain.ActionCreate, After: cloneRegistration(r)})
	return cloneRegistration(r), nil
}

func validateMatchTarget(t domain.MatchTarget) error {
	switch t.Kind {
	case domain.MatchTargetNone:
		if t.ID != "" {
			return errors.New("match target id set without a kind")
		}
	case domain.MatchTargetDonation, domain.MatchTargetRequest, domain.MatchTargetActivity:
		if t.ID == "" {
			return fmt.Errorf("match target kind %q requires an id", t.Kind)
		}
	default:
		return fmt.Errorf("unknown match target kind %q", t.Kind)
	}
	return nil
}

// CreateMatch stores a match suggestion. The tagged target enforces the
// at-most-one-reference invariant structurally.
func (tx *transaction) CreateMatch(m Match) (Match, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.matches[m.ID]; exists {
		return Match{}, fmt.Errorf("match %q already exists", m.ID)
	}
	if err := validateMatchTarget(m.Target); err != nil {
		return Match{}, err
	}
	if m.Status == "" {
		m.Status = domain.MatchStatusPending
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.matches[m.ID] = cloneMatch(m)
	tx.recordChange(Change{Entity: domain.EntityMatch, Action: domain.ActionCreate, After: cloneMatch(m)})
	return cloneMatch(m), nil
}

// CreatePayment stores a payment record.
func (tx *transaction) CreatePayment(p Payment) (Payment, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.payments[p.ID]; exists {
		return Payment{}, fmt.Errorf("payment %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.payments[p.ID] = clonePayment(p)
	tx.recordChange(Change{Entity: domain.EntityPayment, Action: domain.ActionCreate, After: clonePayment(p)})
	return clonePayment(p), nil
}

// UpdatePayment mutates a payment using the provided mutator function.
func (tx *transaction) UpdatePayment(id string, mutator func(*Payment) error) (Payment, error) {
	current, ok := tx.state.payments[id]
	if !ok {
		return Payment{}, domain.NotFoundError{Entity: domain.EntityPayment, ID: id}
	}
	before := clonePayment(current)
	if err := mutator(&current); err != nil {
		return Payment{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.payments[id] = clonePayment(current)
	tx.recordChange(Change{Entity: domain.EntityPayment, Action: domain.ActionUpdate, Before: before, After: clonePayment(current)})
	return clonePayment(current), nil
}

// CreateNotification stores a user notification.
func (tx *transaction) CreateNotification(n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = tx.store.newID()
	}
	if _, exists := tx.state.notifications[n.ID]; exists {
		return Notification{}, fmt.Errorf("notification %q already exists", n.ID)
	}
	n.Read = false
	n.CreatedAt = tx.now
	n.UpdatedAt = tx.now
	tx.state.notifications[n.ID] = cloneNotification(n)
	tx.recordChange(Change{Entity: domain.EntityNotification, Action: domain.ActionCreate, After: cloneNotification(n)})
	return cloneNotification(n), nil
}

// CreateActivityFeedItem stores a derived feed entry.
func (tx *transaction) CreateActivityFeedItem(f ActivityFeedItem) (ActivityFeedItem, error) {
	if f.ID == "" {
		f.ID = tx.store.newID()
	}
	if _, exists := tx.state.feed[f.ID]; exists {
		return ActivityFeedItem{}, fmt.Errorf("activity feed item %q already exists", f.ID)
	}
	if f.Metadata == nil {
		f.Metadata = map[string]string{}
	}
	f.Likes = 0
	f.Comments = 0
	f.CreatedAt = tx.now
	f.UpdatedAt = tx.now
	tx.state.feed[f.ID] = cloneFeedItem(f)
	tx.recordChange(Change{Entity: domain.EntityActivityFeedItem, Action: domain.ActionCreate, After: cloneFeedItem(f)})
	return cloneFeedItem(f), nil
}

// MarkNotificationRead flips the read flag. A missing id is a silent no-op;
// the asymmetry with the update operations is deliberate.
func (tx *transaction) MarkNotificationRead(id string) {
	current, ok := tx.state.notifications[id]
	if !ok {
		return
	}
	before := cloneNotification(current)
	current.Read = true
	current.UpdatedAt = tx.now
	tx.state.notifications[id] = cloneNotification(current)
	tx.recordChange(Change{Entity: domain.EntityNotification, Action: domain.ActionUpdate, Before: before, After: cloneNotification(current)})
}

// Transaction-scoped lookups -------------------------------------------------

func (tx *transaction) FindUser(id string) (User, bool)       { return findUser(&tx.state, id) }
func (tx *transaction) FindDonation(id string) (Donation, bool) {
	return findDonation(&tx.state, id)
}
func (tx *transaction) FindRequest(id string) (Request, bool) { return findRequest(&tx.state, id) }
func (tx *transaction) FindActivity(id string) (Activity, bool) {
	return findActivity(&tx.state, id)
}
func (tx *transaction) FindPayment(id string) (Payment, bool) { return findPayment(&tx.state, id) }
func (tx *transaction) FindUserByEmail(email string) (User, bool) {
	return findUserByEmail(&tx.state, email)
}

// View methods ---------------------------------------------------------------

func (v transactionView) ListUsers() []User {
	out := make([]User, 0, len(v.state.users))
	for _, u := range v.state.users {
		out = append(out, cloneUser(u))
	}
	sortByCreatedAsc(out, func(u User) (time.Time, string) { return u.CreatedAt, u.ID })
	return out
}

func (v transactionView) ListOrganizations() []Organization {
	out := make([]Organization, 0, len(v.state.organizations))
	for _, o := range v.state.organizations {
		out = append(out, cloneOrganization(o))
	}
	sortByCreatedAsc(out, func(o Organization) (time.Time, string) { return o.CreatedAt, o.ID })
	return out
}

func (v transactionView) ListDonations(f domain.DonationFilter) []Donation {
	return listDonations(v.state, f)
}

func (v transactionView) ListRequests(f domain.RequestFilter) []Request {
	return listRequests(v.state, f)
}

func (v transactionView) ListActivities(f domain.ActivityFilter) []Activity {
	return listActivities(v.state, f)
}

func (v transactionView) ListVolunteerRegistrations(volunteerID string) []VolunteerRegistration {
	return listRegistrations(v.state, volunteerID)
}

func (v transactionView) ListMatches(userID string) []Match {
	return listMatches(v.state, userID)
}

func (v transactionView) ListActivityFeed(limit int) []ActivityFeedItem {
	return listActivityFeed(v.state, limit)
}

func (v transactionView) ListNotifications(userID string) []Notification {
	return listNotifications(v.state, userID)
}

func (v transactionView) ListOrganizationsByLocation(f domain.GeoFilter) []Organization {
	return listOrganizationsByLocation(v.state, f)
}

func (v transactionView) FindUser(id string) (User, bool)       { return findUser(v.state, id) }
func (v transactionView) FindDonation(id string) (Donation, bool) {
	return findDonation(v.state, id)
}
func (v transactionView) FindRequest(id string) (Request, bool) { return findRequest(v.state, id) }
func (v transactionView) FindActivity(id string) (Activity, bool) {
	return findActivity(v.state, id)
}

// Shared query helpers -------------------------------------------------------

func sortByCreatedAsc[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.Before(tj)
	})
}

func sortByCreatedDesc[T any](items []T, key func(T) (time.Time, string)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti.Equal(tj) {
			return idi < idj
		}
		return ti.After(tj)
	})
}

func findUser(st *memoryState, id string) (User, bool) {
	u, ok := st.users[id]
	if !ok {
		return User{}, false
	}
	return cloneUser(u), true
}

func findUserByEmail(st *memoryState, email string) (User, bool) {
	// Linear scan, first match. Email is expected-unique but not enforced, so
	// the scan is made deterministic by walking records in creation order.
	users := make([]User, 0, len(st.users))
	for _, u := range st.users {
		users = append(users, u)
	}
	sortByCreatedAsc(users, func(u User) (time.Time, string) { return u.CreatedAt, u.ID })
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), true
		}
	}
	return User{}, false
}

func findDonation(st *memoryState, id string) (Donation, bool) {
	d, ok := st.donations[id]
	if !ok {
		return Donation{}, false
	}
	return cloneDonation(d), true
}

func findRequest(st *memoryState, id string) (Request, bool) {
	r, ok := st.requests[id]
	if !ok {
		return Request{}, false
	}
	return cloneRequest(r), true
}

func findActivity(st *memoryState, id string) (Activity, bool) {
	a, ok := st.activities[id]
	if !ok {
		return Activity{}, false
	}
	return cloneActivity(a), true
}

func findPayment(st *memoryState, id string) (Payment, bool) {
	p, ok := st.payments[id]
	if !ok {
		return Payment{}, false
	}
	return clonePayment(p), true
}

func listDonations(st *memoryState, f domain.DonationFilter) []Donation {
	// f.Location is accepted for contract parity but not applied; only
	// organizations support geo filtering.
	out := make([]Donation, 0, len(st.donations))
	for _, d := range st.donations {
		if f.Type != "" && d.Type != f.Type {
			continue
		}
		out = append(out, cloneDonation(d))
	}
	sortByCreatedDesc(out, func(d Donation) (time.Time, string) { return d.CreatedAt, d.ID })
	return out
}

func listRequests(st *memoryState, f domain.RequestFilter) []Request {
	out := make([]Request, 0, len(st.requests))
	for _, r := range st.requests {
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.Urgency != "" && r.Urgency != f.Urgency {
			continue
		}
		out = append(out, cloneRequest(r))
	}
	sortByCreatedDesc(out, func(r Request) (time.Time, string) { return r.CreatedAt, r.ID })
	return out
}

func listActivities(st *memoryState, f domain.ActivityFilter) []Activity {
	_ = f.Location // accepted, not applied
	out := make([]Activity, 0, len(st.activities))
	for _, a := range st.activities {
		out = append(out, cloneActivity(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func listRegistrations(st *memoryState, volunteerID string) []VolunteerRegistration {
	out := make([]VolunteerRegistration, 0)
	for _, r := range st.registrations {
		if r.VolunteerID != volunteerID {
			continue
		}
		out = append(out, cloneRegistration(r))
	}
	sortByCreatedAsc(out, func(r VolunteerRegistration) (time.Time, string) { return r.CreatedAt, r.ID })
	return out
}

func listMatches(st *memoryState, userID string) []Match {
	out := make([]Match, 0)
	for _, m := range st.matches {
		if m.UserID != userID {
			continue
		}
		out = append(out, cloneMatch(m))
	}
	sortByCreatedAsc(out, func(m Match) (time.Time, string) { return m.CreatedAt, m.ID })
	return out
}

func listActivityFeed(st *memoryState, limit int) []ActivityFeedItem {
	if limit <= 0 {
		limit = domain.DefaultFeedLimit
	}
	out := make([]ActivityFeedItem, 0, len(st.feed))
	for _, f := range st.feed {
		out = append(out, cloneFeedItem(f))
	}
	sortByCreatedDesc(out, func(f ActivityFeedItem) (time.Time, string) { return f.CreatedAt, f.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func listNotifications(st *memoryState, userID string) []Notification {
	out := make([]Notification, 0)
	for _, n := range st.notifications {
		if n.UserID != userID {
			continue
		}
		out = append(out, cloneNotification(n))
	}
	sortByCreatedDesc(out, func(n Notification) (time.Time, string) { return n.CreatedAt, n.ID })
	return out
}

func listOrganizationsByLocation(st *memoryState, f domain.GeoFilter) []Organization {
	center := domain.GeoPoint{Lat: f.Lat, Lng: f.Lng}
	radius := f.Radius()
	out := make([]Organization, 0)
	for _, o := range st.organizations {
		if o.Location == nil {
			continue
		}
		if domain.DistanceKM(center, *o.Location) > radius {
			continue
		}
		out = append(out, cloneOrganization(o))
	}
	sortByCreatedAsc(out, func(o Organization) (time.Time, string) { return o.CreatedAt, o.ID })
	return out
}

// Read helpers over committed state ------------------------------------------

// GetUser retrieves a user by ID from committed state.
func (s *Store) GetUser(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findUser(&s.state, id)
}

// GetUserByEmail scans in creation order for the first user whose email
// matches case-insensitively.
func (s *Store) GetUserByEmail(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findUserByEmail(&s.state, email)
}

// GetDonation retrieves a donation by ID.
func (s *Store) GetDonation(id string) (Donation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findDonation(&s.state, id)
}

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(id string) (Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findRequest(&s.state, id)
}

// GetActivity retrieves an activity by ID.
func (s *Store) GetActivity(id string) (Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findActivity(&s.state, id)
}

// GetPayment retrieves a payment by ID.
func (s *Store) GetPayment(id string) (Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findPayment(&s.state, id)
}

// ListDonations returns donations matching the filter, newest first.
func (s *Store) ListDonations(f domain.DonationFilter) []Donation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDonations(&s.state, f)
}

// ListRequests returns requests matching the filter, newest first.
func (s *Store) ListRequests(f domain.RequestFilter) []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRequests(&s.state, f)
}

// ListActivities returns activities ordered by start time, soonest first.
func (s *Store) ListActivities(f domain.ActivityFilter) []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActivities(&s.state, f)
}

// ListVolunteerRegistrations returns a volunteer's registrations in creation order.
func (s *Store) ListVolunteerRegistrations(volunteerID string) []VolunteerRegistration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRegistrations(&s.state, volunteerID)
}

// ListMatches returns a user's match suggestions.
func (s *Store) ListMatches(userID string) []Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listMatches(&s.state, userID)
}

// ListActivityFeed returns the newest feed entries, truncated to limit
// (DefaultFeedLimit when limit is zero or negative).
func (s *Store) ListActivityFeed(limit int) []ActivityFeedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listActivityFeed(&s.state, limit)
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(userID string) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listNotifications(&s.state, userID)
}

// ListOrganizationsByLocation returns organizations within the filter radius.
// Organizations lacking a location are always excluded.
func (s *Store) ListOrganizationsByLocation(f domain.GeoFilter) []Organization {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listOrganizationsByLocation(&s.state, f)
}
