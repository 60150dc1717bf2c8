package order_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Md-Rabbi-95/Khalab/internal/order"
)

func TestResolvePaymentStatus(t *testing.T) {
	tests := []struct {
		name    string
		payment *order.Payment
		want    string
	}{
		{
			name:    "nil_payment",
			payment: nil,
			want:    "Unpaid",
		},
		{
			name:    "canonical_raw_status_wins",
			payment: &order.Payment{Status: "paid (delivery charge)", Method: order.MethodCOD, Type: order.TypeFull},
			want:    "Paid (Delivery Charge)",
		},
		{
			name:    "canonical_unpaid_beats_full_type",
			payment: &order.Payment{Status: "UNPAID", Method: order.MethodBkash, Type: order.TypeFull},
			want:    "Unpaid",
		},
		{
			name:    "cod_is_unpaid",
			payment: &order.Payment{Status: "Completed", Method: order.MethodCOD, Type: order.TypeFull},
			want:    "Unpaid",
		},
		{
			// Status "Approved" is not canonical, the method is not COD,
			// so the FULL type decides before any keyword scan.
			name:    "conflicting_signals_resolve_by_type",
			payment: &order.Payment{Status: "Approved", Method: order.MethodBkash, Type: order.TypeFull},
			want:    "Paid (Full)",
		},
		{
			name:    "advance_type",
			payment: &order.Payment{Status: "Pending", Method: order.MethodNagad, Type: order.TypeAdvance},
			want:    "Paid (Delivery Charge)",
		},
		{
			name:    "refund_keyword_passes_through",
			payment: &order.Payment{Status: "Refund requested", Method: order.MethodRocket, Type: "LEGACY"},
			want:    "Refund requested",
		},
		{
			name:    "pending_keyword_passes_through",
			payment: &order.Payment{Status: "Under review", Method: order.MethodRocket, Type: "LEGACY"},
			want:    "Under review",
		},
		{
			name:    "approve_keyword_passes_through",
			payment: &order.Payment{Status: "Successful", Method: order.MethodRocket, Type: "LEGACY"},
			want:    "Successful",
		},
		{
			name:    "unknown_raw_status_passes_through",
			payment: &order.Payment{Status: "Migrated", Method: order.MethodRocket, Type: "LEGACY"},
			want:    "Migrated",
		},
		{
			name:    "empty_everything",
			payment: &order.Payment{Status: "", Method: order.MethodRocket, Type: "LEGACY"},
			want:    "Unpaid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, order.ResolvePaymentStatus(tt.payment))
		})
	}
}

func TestBadgeFor(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Paid (Full)", order.BadgeSuccess},
		{"Paid (Delivery Charge)", order.BadgeSuccess},
		{"Unpaid", order.BadgeWarning},
		{"Pending", order.BadgeWarning},
		{"Under review", order.BadgeWarning},
		{"Refund requested", order.BadgeDanger},
		{"Rejected", order.BadgeDanger},
		{"Cancelled", order.BadgeDanger},
		{"Migrated", order.BadgeNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, order.BadgeFor(tt.label))
		})
	}
}

// The order-level and payment-level views derive the badge through the
// same two calls; any payment must land on a consistent pair.
func TestResolvedLabelAlwaysClassifies(t *testing.T) {
	payments := []*order.Payment{
		nil,
		{Status: "Approved", Method: order.MethodBkash, Type: order.TypeFull},
		{Status: "Refunded", Method: order.MethodNagad, Type: "LEGACY"},
		{Status: "", Method: order.MethodCOD, Type: order.TypeFull},
	}

	for _, p := range payments {
		label := order.ResolvePaymentStatus(p)
		badge := order.BadgeFor(label)
		assert.NotEmpty(t, label)
		assert.Contains(t, []string{order.BadgeSuccess, order.BadgeWarning, order.BadgeDanger, order.BadgeNeutral}, badge)
	}
}
