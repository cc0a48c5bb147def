package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces string values logged under keys outside the allowlist.
const RedactedValue = "[REDACTED]"

// Keys emitted by the logger itself.
var envelopeKeys = []string{"service", "env", "message", "severity", "timestamp", "error", "reason", "component"}

// Ledger identities and amounts are public; these are the keys the host and
// the committed events log them under.
var ledgerKeys = []string{
	"operation", "kind", "event",
	"staker", "referrer", "contributor", "authority", "platform", "team",
	"amount", "gross", "net", "fee", "harvested", "balance", "slot", "recipients",
	"stakedamount", "totalstaked", "rewardpershare", "rewarddebt", "rewardsclaimed",
	"tocontributors", "tostakers", "carriedforward", "trigger", "forced",
	"expiry", "nextexpiry", "bonusexpiry", "nextdistribution", "referralnext",
	"id", "from", "to", "memo",
}

// Request metadata logged by the query API. Client addresses stay masked.
var httpKeys = []string{"route", "method", "path", "address"}

var redactionAllowlist = func() map[string]struct{} {
	allow := make(map[string]struct{})
	for _, group := range [][]string{envelopeKeys, ledgerKeys, httpKeys} {
		for _, key := range group {
			allow[key] = struct{}{}
		}
	}
	return allow
}()

// IsAllowlisted reports whether key may be logged without redaction.
func IsAllowlisted(key string) bool {
	_, ok := redactionAllowlist[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskValue returns the placeholder for non-empty values. Empty values are
// returned unchanged.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField returns an attribute that redacts value unless key is
// allowlisted.
func MaskField(key, value string) slog.Attr {
	if IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}

// redact masks string attributes outside the allowlist. Numbers, booleans
// and durations pass through.
func redact(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() != slog.KindString || IsAllowlisted(attr.Key) {
		return attr
	}
	return slog.String(attr.Key, MaskValue(attr.Value.String()))
}
