package domain

import "time"

type InstanceStatus string

const (
	InstanceStatusEnabled  InstanceStatus = "enabled"
	InstanceStatusDisabled InstanceStatus = "disabled"
)

// Instance is one provisioned proxy endpoint, tied to exactly one order.
// Instances exist only after the vendor reports provisioning success.
type Instance struct {
	ID          string         `json:"id" db:"id"`
	InstanceNo  string         `json:"instance_no" db:"instance_no"`
	AppOrderNo  string         `json:"app_order_no" db:"app_order_no"`
	Host        string         `json:"host" db:"host"`
	Port        int            `json:"port" db:"port"`
	Username    string         `json:"username" db:"username"`
	Password    string         `json:"password" db:"password"`
	ExpireAt    time.Time      `json:"expire_at" db:"expire_at"`
	Status      InstanceStatus `json:"status" db:"status"`
	IPAllowList []string       `json:"ip_allow_list" db:"ip_allow_list"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}
