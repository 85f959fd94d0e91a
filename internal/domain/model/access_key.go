package model

import (
	"fmt"
	"strings"
	"time"
)

type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "active"
	KeyStatusUsed    KeyStatus = "used"
	KeyStatusExpired KeyStatus = "expired"
)

type KeyDuration string

const (
	KeyDurationDaily    KeyDuration = "daily"
	KeyDurationWeekly   KeyDuration = "weekly"
	KeyDurationMonthly  KeyDuration = "monthly"
	KeyDurationLifetime KeyDuration = "lifetime"
)

const (
	KeyAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultKeyLength = 16
)

// TTL is how long a key of this class stays redeemable. Lifetime keys return 0.
func (d KeyDuration) TTL() time.Duration {
	switch d {
	case KeyDurationDaily:
		return 24 * time.Hour
	case KeyDurationWeekly:
		return 7 * 24 * time.Hour
	case KeyDurationMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

func ParseKeyDuration(raw string) (KeyDuration, error) {
	switch d := KeyDuration(strings.ToLower(strings.TrimSpace(raw))); d {
	case KeyDurationDaily, KeyDurationWeekly, KeyDurationMonthly, KeyDurationLifetime:
		return d, nil
	}
	return "", fmt.Errorf("unknown key duration %q", raw)
}

// AccessKey is a redeemable credential handed to a buyer.
type AccessKey struct {
	Value     string
	PlanType  string
	Duration  KeyDuration
	ExpiresAt *time.Time
	Status    KeyStatus
	PaymentID *string // set when issued for a confirmed payment; unique
	CreatedBy string
	UsedBy    *string
	UsedAt    *time.Time
	CreatedAt time.Time
}

// NewAccessKey builds an active key whose expiry derives from the duration class.
func NewAccessKey(value, plan string, d KeyDuration, createdBy string, now time.Time) *AccessKey {
	k := &AccessKey{
		Value:     value,
		PlanType:  plan,
		Duration:  d,
		Status:    KeyStatusActive,
		CreatedBy: createdBy,
		CreatedAt: now,
	}
	if ttl := d.TTL(); ttl > 0 {
		exp := now.Add(ttl)
		k.ExpiresAt = &exp
	}
	return k
}

func (k *AccessKey) IsRedeemable(now time.Time) bool {
	if k.Status != KeyStatusActive {
		return false
	}
	return k.ExpiresAt == nil || now.Before(*k.ExpiresAt)
}
