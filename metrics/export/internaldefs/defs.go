package internaldefs

import (
	"strconv"
	"strings"

	"github.com/chatcore/sessiongate"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for exporters.
type HistogramDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for AuditDropped.
const AuditDroppedName = "sessiongate_audit_dropped_total"

// AuditDroppedHelp is its help text.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: sessiongate.MetricSessionReloaded, Name: "sessiongate_session_reloaded_total", Help: "Session records loaded by Reload."},
	{ID: sessiongate.MetricSessionAbsent, Name: "sessiongate_session_absent_total", Help: "Reload calls with no session id or no stored record."},
	{ID: sessiongate.MetricSessionReloadFailure, Name: "sessiongate_session_reload_failure_total", Help: "Reload calls failed by the session store."},
	{ID: sessiongate.MetricAuthSuccess, Name: "sessiongate_auth_success_total", Help: "Successful authentications."},
	{ID: sessiongate.MetricAuthNoSession, Name: "sessiongate_auth_no_session_total", Help: "Authentications rejected for a missing session."},
	{ID: sessiongate.MetricAuthUserDeleted, Name: "sessiongate_auth_user_deleted_total", Help: "Authentications rejected for a deleted user."},
	{ID: sessiongate.MetricAuthCredentialChanged, Name: "sessiongate_auth_credential_changed_total", Help: "Authentications rejected for a credential changed after issuance."},
	{ID: sessiongate.MetricAuthUnavailable, Name: "sessiongate_auth_unavailable_total", Help: "Authentications failed by an unavailable dependency."},
	{ID: sessiongate.MetricTouchFailure, Name: "sessiongate_touch_failure_total", Help: "Failed best-effort last-seen writes."},
	{ID: sessiongate.MetricForbiddenNotActive, Name: "sessiongate_forbidden_not_active_total", Help: "Requests rejected by the is-active gate."},
	{ID: sessiongate.MetricForbiddenNotAdmin, Name: "sessiongate_forbidden_not_admin_total", Help: "Requests rejected by the is-admin gate."},
	{ID: sessiongate.MetricGateMisuse, Name: "sessiongate_gate_misuse_total", Help: "Authorization gates run without an authenticated principal."},
	{ID: sessiongate.MetricPlatformRecorded, Name: "sessiongate_platform_recorded_total", Help: "Recorded platform tags."},
	{ID: sessiongate.MetricPlatformFailure, Name: "sessiongate_platform_failure_total", Help: "Swallowed platform tag write failures."},
	{ID: sessiongate.MetricLogout, Name: "sessiongate_logout_total", Help: "Single-session logout operations."},
}

var HistogramDefs = []HistogramDef{
	{ID: sessiongate.MetricAuthenticateLatency, Name: "sessiongate_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// BucketCount is the number of histogram buckets, the last one unbounded.
var BucketCount = len(sessiongate.HistogramBounds()) + 1

// UpperBoundsSeconds returns the finite bucket bounds in seconds.
func UpperBoundsSeconds() []float64 {
	bounds := sessiongate.HistogramBounds()
	out := make([]float64, len(bounds))
	for i, b := range bounds {
		out[i] = b.Seconds()
	}
	return out
}

// BoundSuffixes returns instrument-name-safe bucket labels such as "0_005"
// and "inf".
func BoundSuffixes() []string {
	bounds := UpperBoundsSeconds()
	out := make([]string, 0, len(bounds)+1)
	for _, b := range bounds {
		out = append(out, strings.ReplaceAll(strconv.FormatFloat(b, 'f', -1, 64), ".", "_"))
	}
	return append(out, "inf")
}

// NormalizeBuckets copies raw into a slice of exactly BucketCount entries.
func NormalizeBuckets(raw []uint64) []uint64 {
	out := make([]uint64, BucketCount)
	copy(out, raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw []uint64) []uint64 {
	out := make([]uint64, len(raw))
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
