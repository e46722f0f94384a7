package utils

import (
	stderrors "errors"
	"fmt"
	"net/netip"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/licensegate/licensegate/internal/shared/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the validate tags on s. Violations come back as one
// validation error whose details list every failing field.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewValidationError("Validation failed", err.Error())
	}

	msgs := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		msgs[i] = describeFieldError(fe)
	}
	return errors.NewValidationError("Validation failed", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters long"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters long", field, param)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	case "email", "url", "hexadecimal":
		return fmt.Sprintf("%s must be a valid %s", field, fe.Tag())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

var hostnamePattern = regexp.MustCompile(`^(?i)([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)*[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// IsValidDomain reports whether domain is a syntactically valid host name.
func IsValidDomain(domain string) bool {
	return domain != "" && len(domain) <= 253 && hostnamePattern.MatchString(domain)
}

// Ranges a webhook may not target beyond what netip classifies as private,
// loopback or link-local.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("224.0.0.0/4"),
	netip.MustParsePrefix("240.0.0.0/4"),
}

var internalSuffixes = []string{".localhost", ".local", ".internal"}

// ValidateWebhookURL accepts only absolute http(s) URLs whose host is a
// public address or an external domain name.
func ValidateWebhookURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return errors.NewValidationError("url must be a valid absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewValidationError("url scheme must be http or https")
	}

	host := u.Hostname()
	if addr, err := netip.ParseAddr(host); err == nil {
		if !IsPublicAddr(addr) {
			return errors.NewValidationError("url cannot target a private or reserved IP address")
		}
		return nil
	}

	if !IsValidDomain(host) {
		return errors.NewValidationError("url host must be a valid domain name")
	}
	host = strings.ToLower(host)
	if host == "localhost" {
		return errors.NewValidationError("url cannot target localhost or an internal domain")
	}
	for _, suffix := range internalSuffixes {
		if strings.HasSuffix(host, suffix) {
			return errors.NewValidationError("url cannot target localhost or an internal domain")
		}
	}
	return nil
}

// IsPublicAddr reports whether addr may be the target of an outbound
// webhook: not loopback, private, link-local or reserved.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return false
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}
