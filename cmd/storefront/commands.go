package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/storefront"
	"github.com/jrsteele09/go-storefront-client/users"
)

// signIn logs in with the global credentials
func signIn(ctx context.Context, g *Globals, a *app) (*users.Identity, error) {
	if g.Email == "" || g.Password == "" {
		return nil, errors.Wrapf(errors.ErrNotAuthenticated, "--email and --password (or STOREFRONT_EMAIL and STOREFRONT_PASSWORD) are required")
	}
	return a.auth.Login(ctx, g.Email, g.Password, g.Device)
}

// signInIfPossible logs in when credentials were given. Public commands
// work without them.
func signInIfPossible(ctx context.Context, g *Globals, a *app) error {
	if g.Email == "" && g.Password == "" {
		return nil
	}
	_, err := signIn(ctx, g, a)
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type LoginCmd struct{}

func (LoginCmd) Run(ctx context.Context, g *Globals, a *app) error {
	identity, err := signIn(ctx, g, a)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s (id %d)\n", identity.Email, identity.ID)
	return nil
}

type WhoamiCmd struct{}

func (WhoamiCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if _, err := signIn(ctx, g, a); err != nil {
		return err
	}
	return printJSON(a.session.Identity())
}

type LotsCmd struct {
	List   LotsListCmd   `cmd:"" default:"withargs" help:"List lots matching filters."`
	Mine   LotsMineCmd   `cmd:"" help:"List your own lots."`
	Get    LotsGetCmd    `cmd:"" help:"Show one lot."`
	Delete LotsDeleteCmd `cmd:"" help:"Withdraw one of your lots."`
}

type LotsListCmd struct {
	Search   string               `help:"Text the title must contain."`
	Category int64                `help:"Category id, 0 for any."`
	MinPrice string               `help:"Lowest current bid."`
	MaxPrice string               `help:"Highest current bid."`
	From     string               `help:"Earliest start date (YYYY-MM-DD)."`
	To       string               `help:"Latest end date (YYYY-MM-DD)."`
	Status   storefront.LotStatus `help:"0 any, 1 active, 2 upcoming, 3 finished." default:"0"`
	Sort     storefront.LotSort   `help:"0 newest, 1 price ascending, 2 price descending, 3 ending soon." default:"0"`
}

func (c LotsListCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if err := signInIfPossible(ctx, g, a); err != nil {
		return err
	}
	filters := storefront.LotFilters{
		SearchQuery: c.Search,
		MinPrice:    c.MinPrice,
		MaxPrice:    c.MaxPrice,
		StartDate:   c.From,
		EndDate:     c.To,
		Status:      c.Status,
		SortBy:      c.Sort,
	}
	if c.Category != 0 {
		filters.CategoryID = &c.Category
	}
	lots, err := a.shop.ListLots(ctx, filters)
	if err != nil {
		return err
	}
	return printJSON(lots)
}

type LotsMineCmd struct{}

func (LotsMineCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if _, err := signIn(ctx, g, a); err != nil {
		return err
	}
	lots, err := a.shop.MyLots(ctx)
	if err != nil {
		return err
	}
	return printJSON(lots)
}

type LotsGetCmd struct {
	ID int64 `arg:"" help:"Lot id."`
}

func (c LotsGetCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if err := signInIfPossible(ctx, g, a); err != nil {
		return err
	}
	lot, err := a.shop.GetLot(ctx, c.ID)
	if err != nil {
		return err
	}
	return printJSON(lot)
}

type LotsDeleteCmd struct {
	ID int64 `arg:"" help:"Lot id."`
}

func (c LotsDeleteCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if _, err := signIn(ctx, g, a); err != nil {
		return err
	}
	if err := a.shop.DeleteLot(ctx, c.ID); err != nil {
		return err
	}
	fmt.Printf("Lot %d deleted\n", c.ID)
	return nil
}

type ReviewsCmd struct {
	List   ReviewsListCmd   `cmd:"" help:"Show a seller and their reviews."`
	Create ReviewsCreateCmd `cmd:"" help:"Review a seller."`
	Update ReviewsUpdateCmd `cmd:"" help:"Change one of your reviews."`
	Delete ReviewsDeleteCmd `cmd:"" help:"Remove one of your reviews."`
}

type ReviewsListCmd struct {
	UserID int64 `arg:"" help:"Seller user id."`
}

func (c ReviewsListCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if err := signInIfPossible(ctx, g, a); err != nil {
		return err
	}
	profile, err := a.shop.SellerProfile(ctx, c.UserID)
	if err != nil {
		return err
	}
	return printJSON(profile)
}

type ReviewsCreateCmd struct {
	UserID  int64  `arg:"" help:"Seller user id."`
	Rating  int    `help:"Rating from 1 to 5." default:"5"`
	Comment string `help:"Review text."`
}

func (c ReviewsCreateCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if _, err := signIn(ctx, g, a); err != nil {
		return err
	}
	err := a.shop.CreateReview(ctx, storefront.ReviewInput{TargetUserID: c.UserID, Rating: c.Rating, Comment: c.Comment})
	if errors.Is(err, errors.ErrConflict) {
		return fmt.Errorf("you can only leave one review per seller: %w", err)
	}
	return err
}

type ReviewsUpdateCmd struct {
	ID      int64  `arg:"" help:"Review id."`
	Rating  int    `help:"Rating from 1 to 5." required:""`
	Comment string `help:"Review text."`
}

func (c ReviewsUpdateCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if _, err := signIn(ctx, g, a); err != nil {
		return err
	}
	return a.shop.UpdateReview(ctx, c.ID, c.Rating, c.Comment)
}

type ReviewsDeleteCmd struct {
	ID int64 `arg:"" help:"Review id."`
}

func (c ReviewsDeleteCmd) Run(ctx context.Context, g *Globals, a *app) error {
	if _, err := signIn(ctx, g, a); err != nil {
		return err
	}
	return a.shop.DeleteReview(ctx, c.ID)
}
