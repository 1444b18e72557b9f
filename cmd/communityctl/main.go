// Command communityctl is an operator tool for a communitycore deployment.
// It opens the store configured by the environment and runs one subcommand:
//
//	communityctl stats          print per-entity record counts
//	communityctl seed           insert a demo data set
//	communityctl feed [-n N]    print the newest activity feed items
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"communitycore/internal/core"
	"communitycore/pkg/domain"
)

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	store, err := core.OpenPersistentStore(domain.NewRulesEngine())
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	metrics := core.NewExpvarMetricsRecorder("communityctl")
	svc := core.NewService(store, core.WithLogger(log), core.WithMetrics(metrics))

	ctx := context.Background()
	switch os.Args[1] {
	case "stats":
		err = runStats(ctx, store)
	case "seed":
		err = runSeed(ctx, svc, metrics, log)
	case "feed":
		err = runFeed(ctx, store, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: communityctl <stats|seed|feed> [flags]")
}

func runStats(ctx context.Context, store domain.PersistentStore) error {
	return store.View(ctx, func(view domain.TransactionView) error {
		rows := []struct {
			label string
			count int
		}{
			{"users", len(view.ListUsers())},
			{"organizations", len(view.ListOrganizations())},
			{"donations", len(view.ListDonations(domain.DonationFilter{}))},
			{"requests", len(view.ListRequests(domain.RequestFilter{}))},
			{"activities", len(view.ListActivities(domain.ActivityFilter{}))},
			{"feed items", len(view.ListActivityFeed(math.MaxInt))},
		}
		for _, row := range rows {
			fmt.Printf("%-14s %d\n", row.label, row.count)
		}
		return nil
	})
}

func runFeed(ctx context.Context, store domain.PersistentStore, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	limit := fs.Int("n", 20, "maximum feed items to print")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return store.View(ctx, func(view domain.TransactionView) error {
		for _, item := range view.ListActivityFeed(*limit) {
			fmt.Printf("%s  [%s]  %s\n", item.CreatedAt.Format(time.RFC3339), item.Type, item.Title)
			if item.Description != "" {
				fmt.Printf("    %s\n", item.Description)
			}
		}
		return nil
	})
}

// runSeed inserts a small connected demo data set: two users, an organization,
// plus a donation, a request, and an activity so the derived feed has entries.
func runSeed(ctx context.Context, svc *core.Service, metrics *core.ExpvarMetricsRecorder, log zerolog.Logger) error {
	donor, _, err := svc.CreateUser(ctx, domain.User{
		Name:     "Demo Donor",
		Email:    "donor@example.org",
		UserType: "donor",
		Location: &domain.GeoPoint{Address: "Kuala Lumpur", Lat: 3.139, Lng: 101.6869},
	})
	if err != nil {
		return fmt.Errorf("seed donor: %w", err)
	}
	requester, _, err := svc.CreateUser(ctx, domain.User{
		Name:     "Demo Requester",
		Email:    "requester@example.org",
		UserType: "individual",
		Location: &domain.GeoPoint{Address: "Petaling Jaya", Lat: 3.1073, Lng: 101.6067},
	})
	if err != nil {
		return fmt.Errorf("seed requester: %w", err)
	}
	org, _, err := svc.CreateOrganization(ctx, domain.Organization{
		UserID:   donor.ID,
		Name:     "Demo Community Kitchen",
		Location: &domain.GeoPoint{Address: "Kuala Lumpur", Lat: 3.139, Lng: 101.6869},
	})
	if err != nil {
		return fmt.Errorf("seed organization: %w", err)
	}

	description := "Sealed dry goods, two boxes"
	donation, _, err := svc.CreateDonation(ctx, domain.Donation{
		DonorID:     donor.ID,
		Type:        "goods",
		Title:       "Food staples",
		Description: &description,
	})
	if err != nil {
		return fmt.Errorf("seed donation: %w", err)
	}
	target := "500.00"
	request, _, err := svc.CreateRequest(ctx, domain.Request{
		RequesterID:  requester.ID,
		Type:         "funds",
		Title:        "School supplies for 20 children",
		Description:  "New term starts next month",
		Urgency:      domain.UrgencyHigh,
		TargetAmount: &target,
	})
	if err != nil {
		return fmt.Errorf("seed request: %w", err)
	}
	start := time.Now().Add(72 * time.Hour).UTC()
	activity, _, err := svc.CreateActivity(ctx, domain.Activity{
		OrganizerID: donor.ID,
		Title:       "Weekend food distribution",
		Description: "Pack and hand out food boxes",
		Location:    domain.GeoPoint{Address: "Kuala Lumpur", Lat: 3.139, Lng: 101.6869},
		StartTime:   start,
		EndTime:     start.Add(4 * time.Hour),
		Skills:      []string{"packing"},
	})
	if err != nil {
		return fmt.Errorf("seed activity: %w", err)
	}

	log.Info().
		Str("donor", donor.ID).
		Str("requester", requester.ID).
		Str("organization", org.ID).
		Str("donation", donation.ID).
		Str("request", request.ID).
		Str("activity", activity.ID).
		Msg("seeded demo records")
	for op, totals := range metrics.Snapshot().Operations {
		log.Debug().
			Str("operation", op).
			Float64("duration_ms", totals.DurationMS).
			Int64("success", totals.Success).
			Int64("failure", totals.Failure).
			Msg("operation totals")
	}
	return nil
}
