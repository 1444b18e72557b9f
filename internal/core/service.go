package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"

	blobcore "communitycore/internal/infra/blob/core"
	"communitycore/pkg/domain"
)

// ErrNoBlobStore is returned by attachment operations when the service was
// constructed without a blob store.
var ErrNoBlobStore = errors.New("no blob store configured")

// Service exposes higher-level transactional operations for the core schema.
// It owns no global state; construct one per process (or per test) around a
// PersistentStore.
type Service struct {
	store   PersistentStore
	blobs   blobcore.Store
	log     zerolog.Logger
	metrics MetricsRecorder
	nowFn   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics attaches a metrics recorder for per-operation observations.
func WithMetrics(rec MetricsRecorder) Option {
	return func(s *Service) { s.metrics = rec }
}

// WithBlobStore attaches a blob store for image and document payloads.
func WithBlobStore(store blobcore.Store) Option {
	return func(s *Service) { s.blobs = store }
}

// WithClock replaces the time provider used by match suggestions.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   zerolog.Nop(),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

func (s *Service) run(ctx context.Context, op string, fn func(tx Transaction) error) (Result, error) {
	start := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	}
	if err != nil {
		s.log.Debug().Str("operation", op).Err(err).Msg("transaction failed")
		return res, err
	}
	for _, v := range res.Violations {
		if v.Severity == SeverityWarn {
			s.log.Warn().Str("operation", op).Str("rule", v.Rule).Str("entity_id", v.EntityID).Msg(v.Message)
		}
	}
	return res, nil
}

// CreateUser persists a new user.
func (s *Service) CreateUser(ctx context.Context, user User) (User, Result, error) {
	var created User
	res, err := s.run(ctx, "create_user", func(tx Transaction) error {
		var err error
		created, err = tx.CreateUser(user)
		return err
	})
	return created, res, err
}

// UpdateUser mutates a user using the provided mutator.
func (s *Service) UpdateUser(ctx context.Context, id string, mutator func(*User) error) (User, Result, error) {
	var updated User
	res, err := s.run(ctx, "update_user", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateUser(id, mutator)
		return err
	})
	return updated, res, err
}

// CreateOrganization persists a new organization profile.
func (s *Service) CreateOrganization(ctx context.Context, org Organization) (Organization, Result, error) {
	var created Organization
	res, err := s.run(ctx, "create_organization", func(tx Transaction) error {
		var err error
		created, err = tx.CreateOrganization(org)
		return err
	})
	return created, res, err
}

// CreateDonation persists a donation. The derived feed item exists before the
// call returns.
func (s *Service) CreateDonation(ctx context.Context, donation Donation) (Donation, Result, error) {
	var created Donation
	res, err := s.run(ctx, "create_donation", func(tx Transaction) error {
		var err error
		created, err = tx.CreateDonation(donation)
		return err
	})
	return created, res, err
}

// UpdateDonation mutates a donation using the provided mutator.
func (s *Service) UpdateDonation(ctx context.Context, id string, mutator func(*Donation) error) (Donation, Result, error) {
	var updated Donation
	res, err := s.run(ctx, "update_donation", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateDonation(id, mutator)
		return err
	})
	return updated, res, err
}

// CreateRequest persists an aid request.
func (s *Service) CreateRequest(ctx context.Context, request Request) (Request, Result, error) {
	var created Request
	res, err := s.run(ctx, "create_request", func(tx Transaction) error {
		var err error
		created, err = tx.CreateRequest(request)
		return err
	})
	return created, res, err
}

// UpdateRequest mutates a request using the provided mutator.
func (s *Service) UpdateRequest(ctx context.Context, id string, mutator func(*Request) error) (Request, Result, error) {
	var updated Request
	res, err := s.run(ctx, "update_request", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateRequest(id, mutator)
		return err
	})
	return updated, res, err
}

// CreateActivity persists a volunteer activity.
func (s *Service) CreateActivity(ctx context.Context, activity Activity) (Activity, Result, error) {
	var created Activity
	res, err := s.run(ctx, "create_activity", func(tx Transaction) error {
		var err error
		created, err = tx.CreateActivity(activity)
		return err
	})
	return created, res, err
}

// UpdateActivity mutates an activity using the provided mutator.
func (s *Service) UpdateActivity(ctx context.Context, id string, mutator func(*Activity) error) (Activity, Result, error) {
	var updated Activity
	res, err := s.run(ctx, "update_activity", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateActivity(id, mutator)
		return err
	})
	return updated, res, err
}

// RegisterVolunteer signs a volunteer up for an activity within a transaction
// that validates the activity exists and has capacity, and bumps its
// volunteer count.
func (s *Service) RegisterVolunteer(ctx context.Context, activityID, volunteerID string, message *string) (VolunteerRegistration, Result, error) {
	var created VolunteerRegistration
	res, err := s.run(ctx, "register_volunteer", func(tx Transaction) error {
		activity, ok := tx.FindActivity(activityID)
		if !ok {
			return NotFoundError{Entity: EntityActivity, ID: activityID}
		}
		if activity.MaxVolunteers != nil && activity.CurrentVolunteers >= *activity.MaxVolunteers {
			return fmt.Errorf("activity %q is at capacity", activityID)
		}
		var err error
		created, err = tx.CreateVolunteerRegistration(VolunteerRegistration{
			ActivityID:  activityID,
			VolunteerID: volunteerID,
			Message:     message,
		})
		if err != nil {
			return err
		}
		_, err = tx.UpdateActivity(activityID, func(a *Activity) error {
			a.CurrentVolunteers++
			return nil
		})
		return err
	})
	return created, res, err
}

// CreateMatch persists a match suggestion.
func (s *Service) CreateMatch(ctx context.Context, match Match) (Match, Result, error) {
	var created Match
	res, err := s.run(ctx, "create_match", func(tx Transaction) error {
		var err error
		created, err = tx.CreateMatch(match)
		return err
	})
	return created, res, err
}

// CreatePayment persists a payment record.
func (s *Service) CreatePayment(ctx context.Context, payment Payment) (Payment, Result, error) {
	var created Payment
	res, err := s.run(ctx, "create_payment", func(tx Transaction) error {
		var err error
		created, err = tx.CreatePayment(payment)
		return err
	})
	return created, res, err
}

// UpdatePayment mutates a payment using the provided mutator.
func (s *Service) UpdatePayment(ctx context.Context, id string, mutator func(*Payment) error) (Payment, Result, error) {
	var updated Payment
	res, err := s.run(ctx, "update_payment", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdatePayment(id, mutator)
		return err
	})
	return updated, res, err
}

// Notify persists a notification; delivery is the caller's concern.
func (s *Service) Notify(ctx context.Context, notification Notification) (Notification, Result, error) {
	var created Notification
	res, err := s.run(ctx, "notify", func(tx Transaction) error {
		var err error
		created, err = tx.CreateNotification(notification)
		return err
	})
	return created, res, err
}

// MarkNotificationRead flips the read flag; a missing id is a silent no-op.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "mark_notification_read", func(tx Transaction) error {
		tx.MarkNotificationRead(id)
		return nil
	})
}

const defaultSuggestionLimit = 10

const proximityCutoffKM = 50

func urgencyWeight(u domain.Urgency) float64 {
	switch u {
	case domain.UrgencyHigh:
		return 0.3
	case domain.UrgencyLow:
		return 0.1
	default:
		return 0.2
	}
}

func proximityBonus(a, b *GeoPoint, max float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	d := domain.DistanceKM(*a, *b)
	if d >= proximityCutoffKM {
		return 0
	}
	return max * (1 - d/proximityCutoffKM)
}

func clampScore(score float64) float64 {
	if score > 1 {
		return 1
	}
	return score
}

// SuggestMatches scores open donations against the user's active requests and
// upcoming activities against the user's location, persisting the top
// suggestions as pending matches. The scoring is a placeholder heuristic, not
// a ranking algorithm.
func (s *Service) SuggestMatches(ctx context.Context, userID string, limit int) ([]Match, Result, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	user, ok := s.store.GetUser(userID)
	if !ok {
		return nil, Result{}, NotFoundError{Entity: EntityUser, ID: userID}
	}
	now := s.nowFn()

	type candidate struct {
		target MatchTarget
		score  float64
		reason string
	}
	var candidates []candidate

	var openRequests []Request
	for _, r := range s.store.ListRequests(RequestFilter{}) {
		if r.RequesterID == userID && r.Status == domain.RequestStatusActive {
			openRequests = append(openRequests, r)
		}
	}

	for _, d := range s.store.ListDonations(DonationFilter{}) {
		if d.DonorID == userID || d.Status != domain.DonationStatusActive {
			continue
		}
		for _, r := range openRequests {
			if r.Type != d.Type {
				continue
			}
			score := 0.5 + urgencyWeight(r.Urgency) + proximityBonus(user.Location, d.Location, 0.2)
			candidates = append(candidates, candidate{
				target: MatchTarget{Kind: domain.MatchTargetDonation, ID: d.ID},
				score:  clampScore(score),
				reason: fmt.Sprintf("donation %q matches your open %s request", d.Title, r.Type),
			})
			break
		}
	}

	for _, a := range s.store.ListActivities(ActivityFilter{}) {
		if a.OrganizerID == userID || a.Status != domain.ActivityStatusActive {
			continue
		}
		if !a.StartTime.After(now) {
			continue
		}
		score := 0.3 + proximityBonus(user.Location, &a.Location, 0.3)
		candidates = append(candidates, candidate{
			target: MatchTarget{Kind: domain.MatchTargetActivity, ID: a.ID},
			score:  clampScore(score),
			reason: fmt.Sprintf("upcoming volunteer activity %q", a.Title),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].target.ID < candidates[j].target.ID
		}
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	matches := make([]Match, 0, len(candidates))
	res, err := s.run(ctx, "suggest_matches", func(tx Transaction) error {
		for _, c := range candidates {
			reason := c.reason
			created, err := tx.CreateMatch(Match{
				Target: c.target,
				UserID: userID,
				Score:  c.score,
				Reason: &reason,
			})
			if err != nil {
				return err
			}
			matches = append(matches, created)
		}
		return nil
	})
	if err != nil {
		return nil, res, err
	}
	return matches, res, nil
}

// AttachDonationImage streams an image into the blob store and appends its
// reference to the donation's image list.
func (s *Service) AttachDonationImage(ctx context.Context, donationID, filename, contentType string, r io.Reader) (Donation, error) {
	if s.blobs == nil {
		return Donation{}, ErrNoBlobStore
	}
	if _, ok := s.store.GetDonation(donationID); !ok {
		return Donation{}, NotFoundError{Entity: EntityDonation, ID: donationID}
	}
	key := fmt.Sprintf("donations/%s/%s", donationID, filename)
	info, err := s.blobs.Put(ctx, key, r, blobcore.PutOptions{ContentType: contentType})
	if err != nil {
		return Donation{}, fmt.Errorf("store image: %w", err)
	}
	ref := info.URL
	if ref == "" {
		ref = info.Key
	}
	var updated Donation
	_, err = s.run(ctx, "attach_donation_image", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateDonation(donationID, func(d *Donation) error {
			d.Images = append(d.Images, ref)
			return nil
		})
		return err
	})
	return updated, err
}

// AttachRequestImage streams an image into the blob store and appends its
// reference to the request's image list.
func (s *Service) AttachRequestImage(ctx context.Context, requestID, filename, contentType string, r io.Reader) (Request, error) {
	if s.blobs == nil {
		return Request{}, ErrNoBlobStore
	}
	if _, ok := s.store.GetRequest(requestID); !ok {
		return Request{}, NotFoundError{Entity: EntityRequest, ID: requestID}
	}
	key := fmt.Sprintf("requests/%s/%s", requestID, filename)
	info, err := s.blobs.Put(ctx, key, r, blobcore.PutOptions{ContentType: contentType})
	if err != nil {
		return Request{}, fmt.Errorf("store image: %w", err)
	}
	ref := info.URL
	if ref == "" {
		ref = info.Key
	}
	var updated Request
	_, err = s.run(ctx, "attach_request_image", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateRequest(requestID, func(req *Request) error {
			req.Images = append(req.Images, ref)
			return nil
		})
		return err
	})
	return updated, err
}
