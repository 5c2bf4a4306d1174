package server

import (
	"net/http"

	"github.com/jrsteele09/go-storefront-client/catalog"
	"github.com/jrsteele09/go-storefront-client/internal/errors"
	"github.com/jrsteele09/go-storefront-client/storefront"
)

func (s *Server) ListLotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := storefront.ParseLotFilters(r.URL.Query())
		if err != nil {
			writeError(w, err)
			return
		}
		lots, err := s.repos.Catalog.ListLots(filters, s.nowTime())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, lots)
	}
}

// MyLotsHandler lists the lots of the signed in seller
func (s *Server) MyLotsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromContext(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		lots, err := s.repos.Catalog.LotsBySeller(identity.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		now := s.nowTime()
		for i := range lots {
			lots[i].Status = catalog.StatusAt(lots[i], now)
		}
		writeJSON(w, http.StatusOK, lots)
	}
}

func (s *Server) GetLotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		lot, err := s.repos.Catalog.GetLot(id)
		if err != nil {
			writeError(w, err)
			return
		}
		lot.Status = catalog.StatusAt(*lot, s.nowTime())
		writeJSON(w, http.StatusOK, lot)
	}
}

// DeleteLotHandler lets a seller withdraw one of their own lots
func (s *Server) DeleteLotHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromContext(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		id, err := pathID(r)
		if err != nil {
			writeError(w, err)
			return
		}
		lot, err := s.repos.Catalog.GetLot(id)
		if err != nil {
			writeError(w, err)
			return
		}
		if lot.SellerID != identity.ID {
			writeError(w, errors.Wrapf(errors.ErrForbidden, "lot %d belongs to another seller", id))
			return
		}
		if err := s.repos.Catalog.DeleteLot(id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
