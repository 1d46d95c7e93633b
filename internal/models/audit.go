package models

import "time"

// Audit actions recorded by the session and billing services.
const (
	AuditUserLogin         = "USER_LOGIN"
	AuditUserLogout        = "USER_LOGOUT"
	AuditUserRegister      = "USER_REGISTER"
	AuditProfileUpdate     = "PROFILE_UPDATE"
	AuditSubscriptionCheck = "SUBSCRIPTION_CHECK"
)

// AuditEvent represents an audit trail entry for an auth or billing action.
type AuditEvent struct {
	ID        string                 `json:"id" firestore:"-"`
	Timestamp time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	UserID    string                 `json:"userId" firestore:"userId"`
	Action    string                 `json:"action" firestore:"action"`
	Details   map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}
