// Package notification tracks which lifecycle notices were already sent so
// periodic sweeps do not repeat them.
package notification

import (
	"context"
	"time"
)

type Kind string

const (
	KindExpiryReminder Kind = "expiry_reminder"
	KindExpired        Kind = "expired"
)

// Log marks that a notice of Kind went out for a license.
type Log struct {
	ID        uint
	LicenseID uint
	Kind      Kind
	SentAt    time.Time
}

func NewLog(licenseID uint, kind Kind) *Log {
	return &Log{LicenseID: licenseID, Kind: kind, SentAt: time.Now().UTC()}
}

type LogRepository interface {
	Exists(ctx context.Context, licenseID uint, kind Kind) (bool, error)
	// Create returns false without error when an entry for the same license
	// and kind already exists.
	Create(ctx context.Context, log *Log) (bool, error)
}

// Message is a rendered notice handed to a delivery channel.
type Message struct {
	Subject string
	Body    string
	To      string
}

// Notifier delivers a message on one channel. Delivery is best effort.
type Notifier interface {
	Name() string
	Enabled() bool
	Send(ctx context.Context, msg Message) error
}
