// Package catalog stores the lots and seller reviews served by the dev API.
package catalog

import (
	"time"

	"github.com/jrsteele09/go-storefront-client/storefront"
)

// StoredReview is a review together with the seller it was left for.
type StoredReview struct {
	storefront.Review
	TargetUserID int64
}

type Repo interface {
	UpsertLot(lot *storefront.Lot) error
	GetLot(id int64) (*storefront.Lot, error)
	DeleteLot(id int64) error
	ListLots(filters storefront.LotFilters, now time.Time) ([]storefront.Lot, error)
	LotsBySeller(sellerID int64) ([]storefront.Lot, error)

	AddReview(review *StoredReview) error
	GetReview(id int64) (*StoredReview, error)
	UpdateReview(review *StoredReview) error
	DeleteReview(id int64) error
	ReviewsFor(targetUserID int64) ([]StoredReview, error)
}

// StatusAt is the auction state of lot at now.
func StatusAt(lot storefront.Lot, now time.Time) storefront.LotStatus {
	switch {
	case now.Before(lot.StartDate):
		return storefront.LotStatusUpcoming
	case !now.Before(lot.EndDate):
		return storefront.LotStatusFinished
	default:
		return storefront.LotStatusActive
	}
}

// Profile summarises the reviews left for a seller.
func Profile(id int64, name string, reviews []StoredReview) *storefront.SellerProfile {
	profile := &storefront.SellerProfile{ID: id, Name: name, Reviews: make([]storefront.Review, 0, len(reviews))}
	total := 0
	for _, r := range reviews {
		profile.Reviews = append(profile.Reviews, r.Review)
		total += r.Rating
	}
	profile.ReviewsCount = len(reviews)
	if len(reviews) > 0 {
		profile.AverageRating = float64(total) / float64(len(reviews))
	}
	return profile
}
