package state

import (
	"fmt"

	"watchvault/crypto"
)

// Raw key layouts. Keys are namespaced per module and keccak-hashed by the KV
// helpers before insertion, so layout changes here are state-breaking.

func accountKey(addr crypto.Address) []byte {
	return []byte(fmt.Sprintf("account/%x", addr.Bytes()))
}

func registryAssetKey(id uint64) []byte {
	return []byte(fmt.Sprintf("registry/asset/%d", id))
}

func registryCounterKey() []byte {
	return []byte("registry/counter")
}

func registryApprovalKey(id uint64) []byte {
	return []byte(fmt.Sprintf("registry/approval/%d", id))
}

func registryOwnerIndexKey(owner crypto.Address) []byte {
	return []byte(fmt.Sprintf("registry/owner-index/%x", owner.Bytes()))
}

func oraclePriceKey(assetID uint64) []byte {
	return []byte(fmt.Sprintf("oracle/price/%d", assetID))
}

func oracleIndexKey() []byte {
	return []byte("oracle/priced-assets")
}

func lendingPoolKey() []byte {
	return []byte("lending/pool")
}

func lendingSharesKey(lender crypto.Address) []byte {
	return []byte(fmt.Sprintf("lending/shares/%x", lender.Bytes()))
}

func lendingLoanKey(assetID uint64) []byte {
	return []byte(fmt.Sprintf("lending/loan/%d", assetID))
}

func lendingLoanHistoryKey(assetID uint64) []byte {
	return []byte(fmt.Sprintf("lending/loan-history/%d", assetID))
}

func fractionalTokenKey(tokenID uint64) []byte {
	return []byte(fmt.Sprintf("fractional/token/%d", tokenID))
}

func fractionalCounterKey() []byte {
	return []byte("fractional/counter")
}

func fractionalBalanceKey(tokenID uint64, addr crypto.Address) []byte {
	return []byte(fmt.Sprintf("fractional/balance/%d/%x", tokenID, addr.Bytes()))
}

func fractionalAllowanceKey(tokenID uint64, owner, spender crypto.Address) []byte {
	return []byte(fmt.Sprintf("fractional/allowance/%d/%x/%x", tokenID, owner.Bytes(), spender.Bytes()))
}

func fractionalVaultKey(assetID uint64) []byte {
	return []byte(fmt.Sprintf("fractional/vault/%d", assetID))
}

func ammPoolKey(assetID uint64) []byte {
	return []byte(fmt.Sprintf("amm/pool/%d", assetID))
}

func ammPoolByTokenKey(tokenID uint64) []byte {
	return []byte(fmt.Sprintf("amm/pool-by-token/%d", tokenID))
}

func ammLPBalanceKey(assetID uint64, addr crypto.Address) []byte {
	return []byte(fmt.Sprintf("amm/lp/%d/%x", assetID, addr.Bytes()))
}

func ammPoolListKey() []byte {
	return []byte("amm/pools")
}
