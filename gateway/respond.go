package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"watchvault/crypto"
	"watchvault/native/amm"
	"watchvault/native/fractional"
	"watchvault/native/lending"
	"watchvault/native/oracle"
	"watchvault/native/registry"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if isMissing(err) {
		status = http.StatusNotFound
	}
	respondJSON(w, status, errorBody{Error: err.Error()})
}

func isMissing(err error) bool {
	return errors.Is(err, registry.ErrNoSuchAsset) ||
		errors.Is(err, oracle.ErrPriceNotSet) ||
		errors.Is(err, lending.ErrNoLoan) ||
		errors.Is(err, lending.ErrNoActiveLoan) ||
		errors.Is(err, fractional.ErrNoVault) ||
		errors.Is(err, fractional.ErrUnknownToken) ||
		errors.Is(err, amm.ErrNoPool)
}

func pathID(r *http.Request, name string) (uint64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func pathAddress(r *http.Request, name string) (crypto.Address, bool) {
	addr, err := crypto.DecodeAddress(chi.URLParam(r, name))
	if err != nil {
		return crypto.Address{}, false
	}
	return addr, true
}

func respondBadPath(w http.ResponseWriter, name string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + name})
}
