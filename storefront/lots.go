package storefront

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/go-storefront-client/internal/errors"
)

// LotStatus filters lots by auction state. Zero means any.
type LotStatus int

const (
	LotStatusAny LotStatus = iota
	LotStatusActive
	LotStatusUpcoming
	LotStatusFinished
)

func (s LotStatus) Valid() bool {
	return s >= LotStatusAny && s <= LotStatusFinished
}

// LotSort orders lot listings. Zero is the API default (newest first).
type LotSort int

const (
	SortNewest LotSort = iota
	SortPriceAsc
	SortPriceDesc
	SortEndingSoon
)

func (s LotSort) Valid() bool {
	return s >= SortNewest && s <= SortEndingSoon
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Lot struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Images       []string  `json:"images"`
	CurrentBid   float64   `json:"currentBid"`
	ReservePrice float64   `json:"reservePrice"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Category     *Category `json:"category,omitempty"`
	SellerID     int64     `json:"sellerId"`
	Status       LotStatus `json:"status"`
}

// LotFilters narrows a lot listing. Empty strings and a nil CategoryID are
// left out of the query.
type LotFilters struct {
	SearchQuery string
	CategoryID  *int64
	MinPrice    string
	MaxPrice    string
	StartDate   string
	EndDate     string
	Status      LotStatus
	SortBy      LotSort
}

func DefaultLotFilters() LotFilters {
	return LotFilters{}
}

// Query encodes the filters the way the lots endpoint expects them.
func (f LotFilters) Query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("searchQuery", f.SearchQuery)
	if f.CategoryID != nil {
		q.Set("categoryId", strconv.FormatInt(*f.CategoryID, 10))
	}
	set("minPrice", f.MinPrice)
	set("maxPrice", f.MaxPrice)
	set("startDate", f.StartDate)
	set("endDate", f.EndDate)
	q.Set("status", strconv.Itoa(int(f.Status)))
	q.Set("sortBy", strconv.Itoa(int(f.SortBy)))
	return q
}

// ParseLotFilters reads filters back from a lots query.
func ParseLotFilters(q url.Values) (LotFilters, error) {
	f := LotFilters{
		SearchQuery: q.Get("searchQuery"),
		MinPrice:    q.Get("minPrice"),
		MaxPrice:    q.Get("maxPrice"),
		StartDate:   q.Get("startDate"),
		EndDate:     q.Get("endDate"),
	}
	if v := q.Get("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.Wrapf(errors.ErrInvalidRequest, "categoryId %q", v)
		}
		f.CategoryID = &id
	}
	if v := q.Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !LotStatus(n).Valid() {
			return f, errors.Wrapf(errors.ErrInvalidRequest, "status %q", v)
		}
		f.Status = LotStatus(n)
	}
	if v := q.Get("sortBy"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !LotSort(n).Valid() {
			return f, errors.Wrapf(errors.ErrInvalidRequest, "sortBy %q", v)
		}
		f.SortBy = LotSort(n)
	}
	return f, nil
}

func (s *Service) ListLots(ctx context.Context, filters LotFilters) ([]Lot, error) {
	var lots []Lot
	if err := s.client().GetJSON(ctx, "/lots?"+filters.Query().Encode(), &lots); err != nil {
		return nil, errors.Wrapf(err, "[Storefront ListLots]")
	}
	return lots, nil
}

// MyLots lists the lots the signed in user is selling.
func (s *Service) MyLots(ctx context.Context) ([]Lot, error) {
	var lots []Lot
	if err := s.client().GetJSON(ctx, "/lots/my", &lots); err != nil {
		return nil, errors.Wrapf(err, "[Storefront MyLots]")
	}
	return lots, nil
}

func (s *Service) GetLot(ctx context.Context, id int64) (*Lot, error) {
	var lot Lot
	if err := s.client().GetJSON(ctx, lotPath(id), &lot); err != nil {
		return nil, errors.Wrapf(err, "[Storefront GetLot] %d", id)
	}
	return &lot, nil
}

func (s *Service) DeleteLot(ctx context.Context, id int64) error {
	return errors.Wrapf(s.client().Delete(ctx, lotPath(id)), "[Storefront DeleteLot] %d", id)
}

func lotPath(id int64) string {
	return fmt.Sprintf("/lots/%d", id)
}
