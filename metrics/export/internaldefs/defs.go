package internaldefs

import (
	"github.com/MrEthical07/credcore"
)

// CounterDef names one counter.
type CounterDef struct {
	ID   credcore.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram.
type HistogramDef struct {
	ID   credcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: credcore.MetricPasswordHashed, Name: "credcore_password_hashed_total", Help: "Passwords hashed."},
	{ID: credcore.MetricPasswordHashFailed, Name: "credcore_password_hash_failed_total", Help: "Password hash attempts that failed."},
	{ID: credcore.MetricPasswordMatch, Name: "credcore_password_match_total", Help: "Password verifications that matched."},
	{ID: credcore.MetricPasswordMismatch, Name: "credcore_password_mismatch_total", Help: "Password verifications that did not match."},
	{ID: credcore.MetricPasswordRehashNeeded, Name: "credcore_password_rehash_total", Help: "Verified hashes replaced with the current scheme or cost."},
	{ID: credcore.MetricPasswordSchemeUnsupported, Name: "credcore_password_scheme_unsupported_total", Help: "Stored hashes naming a scheme that is not enabled."},
	{ID: credcore.MetricTokenIssued, Name: "credcore_token_issued_total", Help: "Access tokens issued."},
	{ID: credcore.MetricTokenIssueFailed, Name: "credcore_token_issue_failed_total", Help: "Access token issuance failures."},
	{ID: credcore.MetricTokenAccepted, Name: "credcore_token_accepted_total", Help: "Access tokens accepted."},
	{ID: credcore.MetricTokenRejectedToken, Name: "credcore_token_rejected_signature_total", Help: "Access tokens rejected for format, signature or claim policy."},
	{ID: credcore.MetricTokenRejectedExpired, Name: "credcore_token_rejected_expired_total", Help: "Access tokens rejected as expired."},
	{ID: credcore.MetricTokenRejectedSchema, Name: "credcore_token_rejected_schema_total", Help: "Access tokens rejected for payload schema violations."},
	{ID: credcore.MetricTokenConfigFailure, Name: "credcore_token_config_failure_total", Help: "Token operations aborted by key or algorithm misconfiguration."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: credcore.MetricHashLatency, Name: "credcore_password_hash_latency_seconds", Help: "Password hash and verify latency."},
	{ID: credcore.MetricFetchLatency, Name: "credcore_token_fetch_latency_seconds", Help: "Access token validation latency."},
}

// HistogramUpperBounds are the bucket upper bounds in seconds. The last bucket is
// open-ended (+Inf).
var HistogramUpperBounds = []float64{0.0001, 0.001, 0.005, 0.025, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket for exporters that flatten buckets into
// separate instruments.
var HistogramBoundSuffix = []string{
	"0_0001",
	"0_001",
	"0_005",
	"0_025",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
