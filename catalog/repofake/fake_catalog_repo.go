package fakecatalogrepo

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-storefront-client/catalog"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/storefront"
)

const dateLayout = "2006-01-02"

var _ catalog.Repo = (*FakeCatalogRepo)(nil)

type FakeCatalogRepo struct {
	lots         map[int64]*storefront.Lot
	reviews      map[int64]*catalog.StoredReview
	nextLotID    int64
	nextReviewID int64
	lock         sync.RWMutex
}

func NewFakeCatalogRepo() catalog.Repo {
	return &FakeCatalogRepo{
		lots:    make(map[int64]*storefront.Lot),
		reviews: make(map[int64]*catalog.StoredReview),
	}
}

func (cr *FakeCatalogRepo) UpsertLot(lot *storefront.Lot) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if lot.ID == 0 {
		cr.nextLotID++
		lot.ID = cr.nextLotID
	} else if lot.ID > cr.nextLotID {
		cr.nextLotID = lot.ID
	}
	stored := *lot
	cr.lots[lot.ID] = &stored
	return nil
}

func (cr *FakeCatalogRepo) GetLot(id int64) (*storefront.Lot, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	lot, ok := cr.lots[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "lot %d", id)
	}
	copied := *lot
	return &copied, nil
}

func (cr *FakeCatalogRepo) DeleteLot(id int64) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if _, ok := cr.lots[id]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "lot %d", id)
	}
	delete(cr.lots, id)
	return nil
}

func (cr *FakeCatalogRepo) ListLots(filters storefront.LotFilters, now time.Time) ([]storefront.Lot, error) {
	match, err := lotMatcher(filters, now)
	if err != nil {
		return nil, err
	}

	cr.lock.RLock()
	lots := make([]storefront.Lot, 0, len(cr.lots))
	for _, lot := range cr.lots {
		if match(*lot) {
			lots = append(lots, *lot)
		}
	}
	cr.lock.RUnlock()

	for i := range lots {
		lots[i].Status = catalog.StatusAt(lots[i], now)
	}
	sortLots(lots, filters.SortBy)
	return lots, nil
}

func (cr *FakeCatalogRepo) LotsBySeller(sellerID int64) ([]storefront.Lot, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	lots := make([]storefront.Lot, 0)
	for _, lot := range cr.lots {
		if lot.SellerID == sellerID {
			lots = append(lots, *lot)
		}
	}
	sortLots(lots, storefront.SortNewest)
	return lots, nil
}

func (cr *FakeCatalogRepo) AddReview(review *catalog.StoredReview) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	for _, existing := range cr.reviews {
		if existing.ReviewerID == review.ReviewerID && existing.TargetUserID == review.TargetUserID {
			return errors.Wrapf(errors.ErrConflict, "user %d already reviewed seller %d", review.ReviewerID, review.TargetUserID)
		}
	}
	cr.nextReviewID++
	review.ID = cr.nextReviewID
	stored := *review
	cr.reviews[review.ID] = &stored
	return nil
}

func (cr *FakeCatalogRepo) GetReview(id int64) (*catalog.StoredReview, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	review, ok := cr.reviews[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "review %d", id)
	}
	copied := *review
	return &copied, nil
}

func (cr *FakeCatalogRepo) UpdateReview(review *catalog.StoredReview) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if _, ok := cr.reviews[review.ID]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "review %d", review.ID)
	}
	stored := *review
	cr.reviews[review.ID] = &stored
	return nil
}

func (cr *FakeCatalogRepo) DeleteReview(id int64) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if _, ok := cr.reviews[id]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "review %d", id)
	}
	delete(cr.reviews, id)
	return nil
}

func (cr *FakeCatalogRepo) ReviewsFor(targetUserID int64) ([]catalog.StoredReview, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	reviews := make([]catalog.StoredReview, 0)
	for _, r := range cr.reviews {
		if r.TargetUserID == targetUserID {
			reviews = append(reviews, *r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}

func lotMatcher(f storefront.LotFilters, now time.Time) (func(storefront.Lot) bool, error) {
	minPrice, err := parsePrice("minPrice", f.MinPrice)
	if err != nil {
		return nil, err
	}
	maxPrice, err := parsePrice("maxPrice", f.MaxPrice)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("startDate", f.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", f.EndDate)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(f.SearchQuery))

	return func(lot storefront.Lot) bool {
		if search != "" && !strings.Contains(strings.ToLower(lot.Title), search) {
			return false
		}
		if f.CategoryID != nil && (lot.Category == nil || lot.Category.ID != *f.CategoryID) {
			return false
		}
		if minPrice != nil && lot.CurrentBid < *minPrice {
			return false
		}
		if maxPrice != nil && lot.CurrentBid > *maxPrice {
			return false
		}
		if !start.IsZero() && lot.StartDate.Before(start) {
			return false
		}
		// endDate includes the whole day
		if !end.IsZero() && !lot.EndDate.Before(end.AddDate(0, 0, 1)) {
			return false
		}
		if f.Status != storefront.LotStatusAny && catalog.StatusAt(lot, now) != f.Status {
			return false
		}
		return true
	}, nil
}

func sortLots(lots []storefront.Lot, by storefront.LotSort) {
	var less func(a, b storefront.Lot) bool
	switch by {
	case storefront.SortPriceAsc:
		less = func(a, b storefront.Lot) bool { return a.CurrentBid < b.CurrentBid }
	case storefront.SortPriceDesc:
		less = func(a, b storefront.Lot) bool { return a.CurrentBid > b.CurrentBid }
	case storefront.SortEndingSoon:
		less = func(a, b storefront.Lot) bool { return a.EndDate.Before(b.EndDate) }
	default:
		less = func(a, b storefront.Lot) bool { return a.StartDate.After(b.StartDate) }
	}
	sort.SliceStable(lots, func(i, j int) bool {
		if less(lots[i], lots[j]) {
			return true
		}
		if less(lots[j], lots[i]) {
			return false
		}
		return lots[i].ID < lots[j].ID
	})
}

func parsePrice(name, value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "%s %q", name, value)
	}
	return &price, nil
}

func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidRequest, "%s %q", name, value)
	}
	return t, nil
}
