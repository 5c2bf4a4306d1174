package server

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-storefront-client/catalog"
	"github.com/jrsteele09/go-storefront-client/storefront"
	"github.com/jrsteele09/go-storefront-client/users"
	"github.com/rs/zerolog/log"
)

const (
	DemoSellerEmail = "seller@example.com"
	DemoBuyerEmail  = "buyer@example.com"
	DemoPassword    = "Storefront1"
)

// SeedDemoData creates two accounts, a handful of lots around now and one
// review, so a fresh dev API has something to browse.
func SeedDemoData(repos Repos, now time.Time) error {
	if err := users.ValidatePasswordStrength(DemoPassword); err != nil {
		return fmt.Errorf("[SeedDemoData] demo password: %w", err)
	}
	hash, err := users.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("[SeedDemoData] failed to hash password: %w", err)
	}

	seller := &users.User{Email: DemoSellerEmail, Name: "Olena Koval", PasswordHash: hash}
	buyer := &users.User{Email: DemoBuyerEmail, Name: "Taras Melnyk", PasswordHash: hash}
	for _, u := range []*users.User{seller, buyer} {
		if err := repos.Users.Upsert(u); err != nil {
			return fmt.Errorf("[SeedDemoData] failed to create user %s: %w", u.Email, err)
		}
	}

	home := &storefront.Category{ID: 1, Name: "Home"}
	art := &storefront.Category{ID: 2, Name: "Art"}
	day := 24 * time.Hour
	lots := []*storefront.Lot{
		{Title: "Oak dining table", CurrentBid: 120, ReservePrice: 200, StartDate: now.Add(-2 * day), EndDate: now.Add(5 * day), Category: home, SellerID: seller.ID},
		{Title: "Brass desk lamp", CurrentBid: 35, ReservePrice: 50, StartDate: now.Add(-10 * day), EndDate: now.Add(-1 * day), Category: home, SellerID: seller.ID},
		{Title: "Landscape oil painting", CurrentBid: 0, ReservePrice: 900, StartDate: now.Add(3 * day), EndDate: now.Add(10 * day), Category: art, SellerID: seller.ID},
		{Title: "Ceramic vase", CurrentBid: 18, ReservePrice: 25, StartDate: now.Add(-1 * day), EndDate: now.Add(2 * day), Category: art, SellerID: buyer.ID},
	}
	for _, lot := range lots {
		lot.Images = []string{}
		if err := repos.Catalog.UpsertLot(lot); err != nil {
			return fmt.Errorf("[SeedDemoData] failed to create lot %q: %w", lot.Title, err)
		}
	}

	if err := repos.Catalog.AddReview(&catalog.StoredReview{
		Review: storefront.Review{
			ReviewerID:   buyer.ID,
			ReviewerName: buyer.Name,
			Rating:       5,
			Comment:      "Lamp arrived well packed.",
			CreatedAt:    now.Add(-12 * time.Hour).UTC(),
		},
		TargetUserID: seller.ID,
	}); err != nil {
		return fmt.Errorf("[SeedDemoData] failed to create review: %w", err)
	}

	log.Info().
		Str("seller", DemoSellerEmail).
		Str("buyer", DemoBuyerEmail).
		Str("password", DemoPassword).
		Int("lots", len(lots)).
		Msg("Demo data seeded")
	return nil
}
