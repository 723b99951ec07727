package model

import "time"

// CommissionTier is one row of the commission table: the platform fee
// applied to orders whose total falls in [MinAmount, MaxAmount).
// A MaxAmount of 0 means the tier is unbounded above.
type CommissionTier struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	MinAmount   float64 `json:"minAmount"`
	MaxAmount   float64 `json:"maxAmount"`
	RatePercent float64 `json:"ratePercent"`
}

// CommissionTable is the full commission configuration. The backend
// computes commissions; the client only edits the table.
type CommissionTable struct {
	Tiers     []CommissionTier `json:"tiers"`
	UpdatedAt time.Time        `json:"updatedAt"`
	UpdatedBy string           `json:"updatedBy"`
}

// PlatformSetting is a single named configuration toggle or value.
type PlatformSetting struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}
