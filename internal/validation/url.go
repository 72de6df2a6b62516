package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// WebhookURLValidator checks URLs accepted at subscription time. Outbound
// posts go wherever the URL points, so by default anything that could
// reach the local network is rejected.
type WebhookURLValidator struct {
	// AllowLocalhost permits localhost targets, for development setups.
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC1918 and link-local targets.
	AllowPrivateIPs bool
	// RequireHTTPS rejects plain http URLs.
	RequireHTTPS bool
	// MaxLength caps the accepted URL length.
	MaxLength int
}

// NewWebhookURLValidator returns a validator with secure defaults.
func NewWebhookURLValidator() *WebhookURLValidator {
	return &WebhookURLValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		RequireHTTPS:    true,
		MaxLength:       2048,
	}
}

// NewPermissiveWebhookURLValidator allows local targets and plain http,
// for development and tests.
func NewPermissiveWebhookURLValidator() *WebhookURLValidator {
	return &WebhookURLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		RequireHTTPS:    false,
		MaxLength:       2048,
	}
}

// Validate checks a webhook URL and returns the trimmed form.
func (v *WebhookURLValidator) Validate(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if v.RequireHTTPS {
			return "", fmt.Errorf("webhook URLs must use https")
		}
	default:
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return "", fmt.Errorf("URL has no host")
	}

	if !v.AllowLocalhost && isLocalhost(host) {
		return "", fmt.Errorf("localhost URLs are not allowed")
	}

	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(host); ip != nil && isPrivateIP(ip) {
			return "", fmt.Errorf("private IP addresses are not allowed")
		}
	}

	return input, nil
}

func isLocalhost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLoopback() || ip.IsUnspecified()
}
