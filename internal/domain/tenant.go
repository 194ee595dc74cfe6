package domain

import "time"

type Tenant struct {
	ID         int32     `json:"id"`
	Name       string    `json:"name"`
	Plan       string    `json:"plan"`
	BookingSeq int32     `json:"booking_seq"`
	CreatedOn  time.Time `json:"created_on"`
}

type Customer struct {
	ID        int32     `json:"id"`
	TenantID  int32     `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedOn time.Time `json:"created_on"`
}

type CustomerSite struct {
	ID         int32  `json:"id"`
	TenantID   int32  `json:"tenant_id"`
	CustomerID int32  `json:"customer_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
}

// PlanLimit is the booking quota state of a tenant.
type PlanLimit struct {
	Allowed    bool   `json:"allowed"`
	LimitType  string `json:"limit_type"`
	Current    int    `json:"current"`
	Max        int    `json:"max"`
	UpgradeURL string `json:"upgrade_url,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ActivityEntry is one audit line for the activity log sink.
type ActivityEntry struct {
	ID          int32          `json:"id"`
	TenantID    int32          `json:"tenant_id"`
	UserID      int32          `json:"user_id"`
	Action      string         `json:"action"`
	Entity      string         `json:"entity"`
	EntityID    int32          `json:"entity_id"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedOn   time.Time      `json:"created_on"`
}

const (
	ActivityCreate   = "CREATE"
	ActivityUpdate   = "UPDATE"
	ActivityCancel   = "CANCEL"
	ActivityReturn   = "RETURN"
	ActivityAdjust   = "ADJUST"
	ActivityLowStock = "LOW_STOCK"
	ActivityReport   = "REPORT"
)
