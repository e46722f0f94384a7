package usecases

import (
	"time"

	"github.com/licensegate/licensegate/internal/domain/license"
)

// Rejection messages returned in valid:false results.
const (
	MsgLicenseValid     = "License is valid"
	MsgNotFound         = "License not found"
	MsgNonceNotFound    = "Invalid nonce"
	MsgNonceUsed        = "Nonce has already been used"
	MsgNonceExpired     = "Nonce has expired"
	MsgProductMismatch  = "License is not valid for this product"
	MsgDomainMismatch   = "License is not valid for this domain"
	MsgNotActive        = "License is not active"
	MsgExpired          = "License has expired"
	MsgSlotsExhausted   = "Maximum activations reached"
	MsgTokenValid       = "Token is valid"
	MsgTokenInvalid     = "Token is invalid or has expired"
	MsgDeactivated      = "Machine deactivated"
	MsgAlreadyActivated = "Machine already activated"
	MsgActivated        = "Machine activated"
)

// LicenseDetails is the partially disclosed license view. Each rejection
// fills only the fields it is allowed to reveal.
type LicenseDetails struct {
	Type           string     `json:"type,omitempty"`
	Status         string     `json:"status,omitempty"`
	CustomerName   string     `json:"customer_name,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	AllowedDomains []string   `json:"allowed_domains,omitempty"`
	Activations    *int       `json:"activations,omitempty"`
	MaxActivations *int       `json:"max_activations,omitempty"`
}

// SecurityEnvelope lets a client detect tampering and re-verify the result
// later without the store.
type SecurityEnvelope struct {
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce,omitempty"`
	Signature string `json:"signature"`
	Token     string `json:"token"`
}

// ValidationResult is the body of a validate response. Signature covers the
// result with Security unset.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Message  string            `json:"message"`
	License  *LicenseDetails   `json:"license,omitempty"`
	Security *SecurityEnvelope `json:"security,omitempty"`
}

func rejected(msg string) *ValidationResult {
	return &ValidationResult{Valid: false, Message: msg}
}

func typeAndStatus(l *license.License) *LicenseDetails {
	return &LicenseDetails{
		Type:   l.Type().String(),
		Status: l.Status().String(),
	}
}

func slotCounts(activations, maxActivations int) *LicenseDetails {
	return &LicenseDetails{
		Activations:    &activations,
		MaxActivations: &maxActivations,
	}
}

func fullDetails(l *license.License, activations int) *LicenseDetails {
	maxActivations := l.MaxActivations()
	return &LicenseDetails{
		Type:           l.Type().String(),
		Status:         l.Status().String(),
		CustomerName:   l.CustomerName(),
		ExpiresAt:      l.ExpiresAt(),
		Activations:    &activations,
		MaxActivations: &maxActivations,
	}
}

// ActivationView describes one machine binding.
type ActivationView struct {
	MachineID   string    `json:"machine_id"`
	Hostname    string    `json:"hostname,omitempty"`
	ActivatedAt time.Time `json:"activated_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

func toActivationView(a *license.Activation) *ActivationView {
	return &ActivationView{
		MachineID:   a.MachineID(),
		Hostname:    a.Hostname(),
		ActivatedAt: a.ActivatedAt(),
		LastSeenAt:  a.LastSeenAt(),
	}
}
