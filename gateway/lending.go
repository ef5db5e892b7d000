package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"watchvault/native/lending"
)

type loanView struct {
	AssetID   uint64 `json:"assetId"`
	Borrower  string `json:"borrower"`
	Principal string `json:"principal"`
	Repaid    bool   `json:"repaid"`
}

func newLoanView(loan *lending.Loan) loanView {
	return loanView{
		AssetID:   loan.AssetID,
		Borrower:  loan.Borrower.String(),
		Principal: loan.Principal.String(),
		Repaid:    loan.Repaid,
	}
}

func (h *restHandlers) lendingRoutes(r chi.Router) {
	r.Get("/pool", h.getPool)
	r.Get("/loans/{assetID}", h.getLoan)
	r.Get("/loans/{assetID}/history", h.getLoanHistory)
	r.Get("/loans/{assetID}/repayment", h.getRepayment)
	r.Get("/lenders/{address}", h.getLenderPosition)
}

func (h *restHandlers) getPool(w http.ResponseWriter, _ *http.Request) {
	pool, err := h.node.GetPoolInfo()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"totalPoolUSDC": pool.TotalPoolUSDC.String(),
		"totalShares":   pool.TotalShares.String(),
	})
}

func (h *restHandlers) getLoan(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	loan, err := h.node.GetLoan(assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newLoanView(loan))
}

func (h *restHandlers) getLoanHistory(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	history, err := h.node.LoanHistory(assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	views := make([]loanView, 0, len(history))
	for _, loan := range history {
		views = append(views, newLoanView(loan))
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *restHandlers) getRepayment(w http.ResponseWriter, r *http.Request) {
	assetID, ok := pathID(r, "assetID")
	if !ok {
		respondBadPath(w, "asset id")
		return
	}
	amount, err := h.node.GetRepaymentAmount(assetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"amount": amount.String()})
}

func (h *restHandlers) getLenderPosition(w http.ResponseWriter, r *http.Request) {
	lender, ok := pathAddress(r, "address")
	if !ok {
		respondBadPath(w, "address")
		return
	}
	position, err := h.node.GetLender(lender)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"shares":    position.Shares.String(),
		"usdcValue": position.USDCValue.String(),
	})
}
