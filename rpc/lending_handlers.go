package rpc

import (
	"net/http"

	"watchvault/native/lending"
)

type lendingDepositParams struct {
	Lender string `json:"lender"`
	Amount string `json:"amount"`
}

func (s *Server) handleLendingDeposit(w http.ResponseWriter, req *RPCRequest) {
	var params lendingDepositParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	lender, err := parseAddress(params.Lender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	shares, err := s.node.LendingDeposit(lender, amount)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"shares": shares.String()})
}

type lendingWithdrawParams struct {
	Lender string `json:"lender"`
	Shares string `json:"shares"`
}

func (s *Server) handleLendingWithdraw(w http.ResponseWriter, req *RPCRequest) {
	var params lendingWithdrawParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	lender, err := parseAddress(params.Lender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	shares, err := parseAmount(params.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.LendingWithdraw(lender, shares)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"amount": amount.String()})
}

type lendingBorrowParams struct {
	Borrower string `json:"borrower"`
	AssetID  uint64 `json:"assetId"`
}

func (s *Server) handleLendingBorrow(w http.ResponseWriter, req *RPCRequest) {
	var params lendingBorrowParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	borrower, err := parseAddress(params.Borrower)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	principal, err := s.node.DepositNFTAndBorrow(borrower, params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"principal": principal.String()})
}

type lendingRepayParams struct {
	Caller  string `json:"caller"`
	AssetID uint64 `json:"assetId"`
}

func (s *Server) handleLendingRepay(w http.ResponseWriter, req *RPCRequest) {
	var params lendingRepayParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.RepayLoan(caller, params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"amount": amount.String()})
}

func (s *Server) handleLendingRepaymentAmount(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := s.node.GetRepaymentAmount(params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"amount": amount.String()})
}

type loanResult struct {
	AssetID   uint64 `json:"assetId"`
	Borrower  string `json:"borrower"`
	Principal string `json:"principal"`
	Repaid    bool   `json:"repaid"`
}

func loanToResult(loan *lending.Loan) loanResult {
	return loanResult{
		AssetID:   loan.AssetID,
		Borrower:  loan.Borrower.String(),
		Principal: loan.Principal.String(),
		Repaid:    loan.Repaid,
	}
}

func (s *Server) handleLendingGetLoan(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	loan, err := s.node.GetLoan(params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanToResult(loan))
}

type lenderParams struct {
	Lender string `json:"lender"`
}

type lenderResult struct {
	Shares    string `json:"shares"`
	USDCValue string `json:"usdcValue"`
}

func (s *Server) handleLendingGetLender(w http.ResponseWriter, req *RPCRequest) {
	var params lenderParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	lender, err := parseAddress(params.Lender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	position, err := s.node.GetLender(lender)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, lenderResult{
		Shares:    position.Shares.String(),
		USDCValue: position.USDCValue.String(),
	})
}

type poolInfoResult struct {
	TotalPoolUSDC string `json:"totalPoolUSDC"`
	TotalShares   string `json:"totalShares"`
}

func (s *Server) handleLendingPoolInfo(w http.ResponseWriter, req *RPCRequest) {
	pool, err := s.node.GetPoolInfo()
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, poolInfoResult{
		TotalPoolUSDC: pool.TotalPoolUSDC.String(),
		TotalShares:   pool.TotalShares.String(),
	})
}

func (s *Server) handleLendingLoanHistory(w http.ResponseWriter, req *RPCRequest) {
	var params assetIDParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	history, err := s.node.LoanHistory(params.AssetID)
	if err != nil {
		writeModuleError(w, req.ID, err)
		return
	}
	results := make([]loanResult, 0, len(history))
	for _, loan := range history {
		results = append(results, loanToResult(loan))
	}
	writeResult(w, req.ID, results)
}
