package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Envelope is the signed, encrypted wrapper for every vendor call.
// Transient; never persisted.
type Envelope struct {
	Version   string `json:"version"`
	Encrypt   string `json:"encrypt"`
	AppKey    string `json:"appKey"`
	ReqID     string `json:"reqId"`
	Timestamp string `json:"timestamp"`
	Params    string `json:"params"`
	Sign      string `json:"sign"`
}

// VendorResponse is the vendor's top-level reply. Data, when present, is a
// base64 AES-CBC ciphertext.
type VendorResponse struct {
	Code int     `json:"code"`
	Msg  string  `json:"msg"`
	Data *string `json:"data"`
}

// OpenInstanceParams is the plaintext body of the open-instance endpoint.
// Dynamic and static orders share the endpoint; unused fields are omitted.
type OpenInstanceParams struct {
	AppOrderNo  string `json:"appOrderNo"`
	ProxyType   int    `json:"proxyType"`
	ProductNo   string `json:"productNo,omitempty"`
	PoolNo      string `json:"poolNo,omitempty"`
	TrafficMB   int    `json:"flow,omitempty"`
	Region      string `json:"region,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
	CityCode    string `json:"cityCode,omitempty"`
	StaticType  string `json:"staticType,omitempty"`
	DurationDay int    `json:"duration,omitempty"`
	Quantity    int    `json:"count,omitempty"`
	CallbackURL string `json:"callbackUrl"`
}

type OpenInstanceResult struct {
	VendorOrderNo string          `json:"orderNo"`
	AppOrderNo    string          `json:"appOrderNo"`
	Amount        decimal.Decimal `json:"amount"`
}

type ReleaseInstanceParams struct {
	AppOrderNo  string   `json:"appOrderNo"`
	InstanceNos []string `json:"proxyList,omitempty"`
}

// DrawIPParams requests endpoints out of an already-open dynamic pool order.
type DrawIPParams struct {
	AppOrderNo string `json:"appOrderNo"`
	PoolNo     string `json:"poolNo"`
	Num        int    `json:"num"`
	Protocol   string `json:"protocol,omitempty"`
}

type DrawIPResult struct {
	IPs []string `json:"list"`
}

type StockQueryParams struct {
	ProxyType   int    `json:"proxyType"`
	CountryCode string `json:"countryCode,omitempty"`
	CityCode    string `json:"cityCode,omitempty"`
}

const (
	CallbackStatusSuccess = "success"
	CallbackStatusFailed  = "failed"
)

// OrderCallback is the vendor-initiated (or sandbox-simulated) completion
// notification, keyed out of band by the internal order id.
type OrderCallback struct {
	Status    string          `json:"status" binding:"required"`
	ProxyInfo json.RawMessage `json:"proxyInfo"`
	Message   string          `json:"message"`
}

// ProxyEndpoint is one provisioned endpoint inside a callback's proxyInfo.
type ProxyEndpoint struct {
	InstanceNo string `json:"instanceNo"`
	Host       string `json:"ip"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	ExpireAt   string `json:"expireAt"`
}

const vendorTimeLayout = "2006-01-02 15:04:05"

// ExpireTime parses the vendor's expiry timestamp; zero time when absent or
// malformed.
func (p ProxyEndpoint) ExpireTime() time.Time {
	t, err := time.Parse(vendorTimeLayout, p.ExpireAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// OrderEvent is published on the websocket hub when an order changes state.
type OrderEvent struct {
	Type       string      `json:"type"`
	OrderID    string      `json:"order_id"`
	AppOrderNo string      `json:"app_order_no"`
	UserID     string      `json:"user_id"`
	Status     OrderStatus `json:"status"`
	Message    string      `json:"message,omitempty"`
}
