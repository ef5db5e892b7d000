package registry

import "watchvault/crypto"

// Asset is the registered record for a single unique item. The metadata URI is
// an opaque pointer resolved off-engine; the registry never interprets it.
type Asset struct {
	// ID is the sequential identifier assigned at mint, starting at 1.
	ID uint64
	// Owner is the current holder. Module treasuries appear here while an
	// asset is locked as loan collateral or vault custody.
	Owner crypto.Address
	// MetadataURI points at the off-engine metadata document.
	MetadataURI string
}

// Clone returns a copy so callers cannot mutate stored records.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}
