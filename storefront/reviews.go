package storefront

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID           int64     `json:"id"`
	ReviewerID   int64     `json:"reviewerId"`
	ReviewerName string    `json:"reviewerName"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SellerProfile is a seller together with the reviews left for them.
type SellerProfile struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	AverageRating float64  `json:"averageRating"`
	ReviewsCount  int      `json:"reviewsCount"`
	Reviews       []Review `json:"reviews"`
}

// ReviewInput creates a review. A user can review each seller once.
type ReviewInput struct {
	TargetUserID int64  `json:"targetUserId"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment"`
}

type reviewUpdate struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ValidateRating rejects ratings outside MinRating..MaxRating.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return errors.Wrapf(errors.ErrInvalidRequest, "rating %d outside %d..%d", rating, MinRating, MaxRating)
	}
	return nil
}

func (s *Service) SellerProfile(ctx context.Context, userID int64) (*SellerProfile, error) {
	var profile SellerProfile
	if err := s.client().GetJSON(ctx, fmt.Sprintf("/reviews/user/%d", userID), &profile); err != nil {
		return nil, errors.Wrapf(err, "[Storefront SellerProfile] %d", userID)
	}
	return &profile, nil
}

func (s *Service) CreateReview(ctx context.Context, in ReviewInput) error {
	if err := ValidateRating(in.Rating); err != nil {
		return errors.Wrapf(err, "[Storefront CreateReview]")
	}
	if in.TargetUserID <= 0 {
		return errors.Wrapf(errors.ErrInvalidRequest, "[Storefront CreateReview] target user is required")
	}
	return errors.Wrapf(s.client().PostJSON(ctx, "/reviews", in, nil), "[Storefront CreateReview] seller %d", in.TargetUserID)
}

func (s *Service) UpdateReview(ctx context.Context, id int64, rating int, comment string) error {
	if err := ValidateRating(rating); err != nil {
		return errors.Wrapf(err, "[Storefront UpdateReview]")
	}
	return errors.Wrapf(s.client().PutJSON(ctx, reviewPath(id), reviewUpdate{Rating: rating, Comment: comment}, nil),
		"[Storefront UpdateReview] %d", id)
}

func (s *Service) DeleteReview(ctx context.Context, id int64) error {
	return errors.Wrapf(s.client().Delete(ctx, reviewPath(id)), "[Storefront DeleteReview] %d", id)
}

func reviewPath(id int64) string {
	return fmt.Sprintf("/reviews/%d", id)
}
