package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductInventory is a locally cached vendor catalog entry, keyed by the
// vendor product number. Upserted only by the inventory sync engine;
// read-only everywhere else.
type ProductInventory struct {
	ID            string          `json:"id" db:"id"`
	ProductNo     string          `json:"product_no" db:"product_no"`
	ProxyType     int             `json:"proxy_type" db:"proxy_type"`
	Region        string          `json:"region" db:"region"`
	CountryCode   string          `json:"country_code" db:"country_code"`
	CityCode      string          `json:"city_code" db:"city_code"`
	CostPrice     decimal.Decimal `json:"cost_price" db:"cost_price"`
	GlobalPrice   decimal.Decimal `json:"global_price" db:"global_price"`
	MinAgentPrice decimal.Decimal `json:"min_agent_price" db:"min_agent_price"`
	Stock         int             `json:"stock" db:"stock"`
	Enabled       bool            `json:"enabled" db:"enabled"`
	LastSyncTime  time.Time       `json:"last_sync_time" db:"last_sync_time"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductStock is one vendor catalog row as returned by the stock query.
type ProductStock struct {
	ProductNo     string          `json:"productNo"`
	ProxyType     int             `json:"proxyType"`
	Region        string          `json:"region"`
	CountryCode   string          `json:"countryCode"`
	CityCode      string          `json:"cityCode"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	GlobalPrice   decimal.Decimal `json:"globalPrice"`
	MinAgentPrice decimal.Decimal `json:"minAgentPrice"`
	Inventory     int             `json:"inventory"`
	Enable        int             `json:"enable"`
}

// StockResult is the tagged decoding of a vendor stock response: either the
// vendor sent no data for the proxy type, or a concrete product list.
// Decoded exactly once at the vendor client boundary.
type StockResult struct {
	Empty    bool
	Products []ProductStock
}

// ProductFilter narrows inventory reads for collaborators.
type ProductFilter struct {
	ProxyType   *int
	CountryCode string
	EnabledOnly bool
}
