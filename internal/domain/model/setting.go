package model

import "time"

// Well known setting keys.
const (
	SettingKeysTotalLimit = "keys.total_limit"
	SettingKeysSoldCount  = "keys.sold_count"
	SettingSupportActive  = "support.active"
)

type Setting struct {
	Key         string
	Value       string
	Description *string
	UpdatedBy   *string
	UpdatedAt   time.Time
}

// KeyStock is the sale allowance for the current period.
type KeyStock struct {
	Limit int
	Sold  int
}

func (s KeyStock) Available() int {
	if s.Sold >= s.Limit {
		return 0
	}
	return s.Limit - s.Sold
}
