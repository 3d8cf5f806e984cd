package deposit

// User-facing status strings derived from Status.
const (
	UserStatusDepositPending  = "deposit pending"
	UserStatusDepositVerified = "deposit verified"
	UserStatusRefundPending   = "refund pending"
	UserStatusRefunded        = "refunded"
	UserStatusRefundFailed    = "refund failed, contact support"
)

// UserStatus maps a record status to the string shown to end users.
func UserStatus(s Status) string {
	switch s {
	case StatusPending:
		return UserStatusDepositPending
	case StatusVerified:
		return UserStatusDepositVerified
	case StatusRefundPending:
		return UserStatusRefundPending
	case StatusRefunded:
		return UserStatusRefunded
	case StatusFailed:
		return UserStatusRefundFailed
	default:
		return UserStatusDepositPending
	}
}
