package domain

// Pool is the on-ledger record of a lending facility for a single asset.
// One pool exists per lent mint; it is created once and never deleted.
type Pool struct {
	AssetID        string // token mint address (base58)
	PoolAddress    string // derived from ("flash_pool", asset_id)
	ReserveAccount string // derived from ("pool_vault", asset_id), holds the lendable balance
	Authority      string // principal allowed to mutate pool configuration
	Beneficiary    string // sole recipient of settlement surplus
	FeeBps         uint64 // loan fee in basis points
	IsPaused       bool
	AccruedFees    uint64 // fee revenue currently retained in the reserve
}
