package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront-client/catalog"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/storefront"
)

type reviewUpdate struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SellerProfileHandler answers with a seller and the reviews left for them
func (s *Server) SellerProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		seller, err := s.repos.Users.GetByID(id)
		if err != nil {
			writeError(w, err)
			return
		}
		reviews, err := s.repos.Catalog.ReviewsFor(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, catalog.Profile(seller.ID, displayName(seller.Name, seller.Email), reviews))
	}
}

// CreateReviewHandler records a review of a seller. Users cannot review
// themselves and review each seller at most once.
func (s *Server) CreateReviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromContext(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		var in storefront.ReviewInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, err)
			return
		}
		if err := storefront.ValidateRating(in.Rating); err != nil {
			writeError(w, err)
			return
		}
		if in.TargetUserID == identity.ID {
			writeError(w, errors.Wrapf(errors.ErrInvalidRequest, "you cannot review yourself"))
			return
		}
		if _, err := s.repos.Users.GetByID(in.TargetUserID); err != nil {
			writeError(w, err)
			return
		}
		reviewer, err := s.repos.Users.GetByID(identity.ID)
		if err != nil {
			writeError(w, err)
			return
		}

		review := &catalog.StoredReview{
			Review: storefront.Review{
				ReviewerID:   reviewer.ID,
				ReviewerName: displayName(reviewer.Name, reviewer.Email),
				Rating:       in.Rating,
				Comment:      strings.TrimSpace(in.Comment),
				CreatedAt:    s.nowTime().UTC(),
			},
			TargetUserID: in.TargetUserID,
		}
		if err := s.repos.Catalog.AddReview(review); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, review.Review)
	}
}

func (s *Server) UpdateReviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		review, err := s.ownReview(r)
		if err != nil {
			writeError(w, err)
			return
		}
		var in reviewUpdate
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, err)
			return
		}
		if err := storefront.ValidateRating(in.Rating); err != nil {
			writeError(w, err)
			return
		}

		review.Rating = in.Rating
		review.Comment = strings.TrimSpace(in.Comment)
		if err := s.repos.Catalog.UpdateReview(review); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, review.Review)
	}
}

func (s *Server) DeleteReviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		review, err := s.ownReview(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.repos.Catalog.DeleteReview(review.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ownReview loads the review named in the path if the caller wrote it
func (s *Server) ownReview(r *http.Request) (*catalog.StoredReview, error) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		return nil, err
	}
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	review, err := s.repos.Catalog.GetReview(id)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID != identity.ID {
		return nil, errors.Wrapf(errors.ErrForbidden, "review %d was written by another user", id)
	}
	return review, nil
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
