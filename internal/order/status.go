package order

import "strings"

// Badge severities for the storefront and admin views.
const (
	BadgeSuccess = "success"
	BadgeWarning = "warning"
	BadgeDanger  = "danger"
	BadgeNeutral = "neutral"
)

var canonicalStatuses = []string{
	PaymentStatusPaidFull,
	PaymentStatusPaidAdvance,
	PaymentStatusUnpaid,
}

var (
	dangerKeywords  = []string{"refund", "chargeback", "reject", "fail", "cancel"}
	pendingKeywords = []string{"pending", "hold", "await", "review", "process"}
	successKeywords = []string{"approve", "complete", "success"}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// ResolvePaymentStatus derives the single authoritative payment-status
// label from a Payment's raw status string, method and type, which may
// disagree after operator edits. The raw status wins only when it
// already equals a canonical label; otherwise method and type decide,
// and only then is the raw status scanned for keywords. First match
// wins.
func ResolvePaymentStatus(p *Payment) string {
	if p == nil {
		return PaymentStatusUnpaid
	}

	raw := strings.TrimSpace(p.Status)
	lower := strings.ToLower(raw)

	for _, canonical := range canonicalStatuses {
		if lower == strings.ToLower(canonical) {
			return canonical
		}
	}

	if p.Method == MethodCOD {
		return PaymentStatusUnpaid
	}
	switch p.Type {
	case TypeFull:
		return PaymentStatusPaidFull
	case TypeAdvance:
		return PaymentStatusPaidAdvance
	}

	if containsAny(lower, dangerKeywords) {
		return raw
	}
	if containsAny(lower, pendingKeywords) {
		return raw
	}
	if containsAny(lower, successKeywords) {
		if raw == "" {
			return PaymentStatusPaidFull
		}
		return raw
	}

	if raw != "" {
		return raw
	}
	return PaymentStatusUnpaid
}

// BadgeFor classifies a resolved label. Order-level and payment-level
// views both call this, so they can never disagree on the same input.
func BadgeFor(label string) string {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "paid") && !strings.Contains(lower, "unpaid"):
		return BadgeSuccess
	case containsAny(lower, dangerKeywords):
		return BadgeDanger
	case strings.Contains(lower, "unpaid") || containsAny(lower, pendingKeywords):
		return BadgeWarning
	default:
		return BadgeNeutral
	}
}
