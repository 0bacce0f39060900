package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderVariant distinguishes traffic-metered pool access from fixed-IP
// duration-metered access.
type OrderVariant string

const (
	OrderVariantDynamic OrderVariant = "dynamic"
	OrderVariantStatic  OrderVariant = "static"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusActive     OrderStatus = "active"
	OrderStatusSuccess    OrderStatus = "success"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusExpired    OrderStatus = "expired"
	OrderStatusClosed     OrderStatus = "closed"
)

// transitions encodes the per-variant state machines:
// dynamic: pending -> active | failed | expired
// static:  pending -> processing -> success | failed; non-terminal -> closed
var transitions = map[OrderVariant]map[OrderStatus][]OrderStatus{
	OrderVariantDynamic: {
		OrderStatusPending: {OrderStatusActive, OrderStatusFailed, OrderStatusExpired, OrderStatusClosed},
		OrderStatusActive:  {OrderStatusExpired, OrderStatusClosed},
	},
	OrderVariantStatic: {
		OrderStatusPending:    {OrderStatusProcessing, OrderStatusSuccess, OrderStatusFailed, OrderStatusClosed},
		OrderStatusProcessing: {OrderStatusSuccess, OrderStatusFailed, OrderStatusClosed},
		OrderStatusSuccess:    {OrderStatusExpired, OrderStatusClosed},
	},
}

// CanTransition reports whether an order of the given variant may move from
// one status to another. Terminal statuses admit no further transitions.
func CanTransition(variant OrderVariant, from, to OrderStatus) bool {
	for _, s := range transitions[variant][from] {
		if s == to {
			return true
		}
	}
	return false
}

// TerminalSuccess is the serving status for the variant.
func TerminalSuccess(variant OrderVariant) OrderStatus {
	if variant == OrderVariantDynamic {
		return OrderStatusActive
	}
	return OrderStatusSuccess
}

// Order is a purchase of proxy capacity. AppOrderNo is globally unique and
// is the idempotency key presented to the vendor.
type Order struct {
	ID            string          `json:"id" db:"id"`
	AppOrderNo    string          `json:"app_order_no" db:"app_order_no"`
	VendorOrderNo string          `json:"vendor_order_no" db:"vendor_order_no"`
	UserID        string          `json:"user_id" db:"user_id"`
	AgentID       string          `json:"agent_id" db:"agent_id"`
	Variant       OrderVariant    `json:"variant" db:"variant"`
	ProductNo     string          `json:"product_no" db:"product_no"`
	PoolNo        string          `json:"pool_no" db:"pool_no"`
	Quantity      int             `json:"quantity" db:"quantity"`
	TrafficMB     int             `json:"traffic_mb" db:"traffic_mb"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	Status        OrderStatus     `json:"status" db:"status"`
	VendorPayload json.RawMessage `json:"vendor_payload" db:"vendor_payload"`
	Remark        string          `json:"remark" db:"remark"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// CreateOrderRequest carries everything the orchestrator needs for one
// purchase. Dynamic orders require PoolNo and TrafficMB; static orders
// require the geography, static type, duration and quantity fields.
// AgentID is optional; when empty the billing agent is resolved from the
// account's parent.
type CreateOrderRequest struct {
	UserID  string       `json:"user_id" binding:"required"`
	AgentID string       `json:"agent_id"`
	Variant OrderVariant `json:"variant" binding:"required"`

	ProductNo string `json:"product_no"`
	PoolNo    string `json:"pool_no"`
	TrafficMB int    `json:"traffic_mb"`

	Region      string `json:"region"`
	CountryCode string `json:"country_code"`
	CityCode    string `json:"city_code"`
	StaticType  string `json:"static_type"`
	DurationDay int    `json:"duration_day"`
	Quantity    int    `json:"quantity"`

	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Remark      string          `json:"remark"`
}
