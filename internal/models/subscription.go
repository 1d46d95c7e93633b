package models

import "time"

// SubscriptionStatus describes billing state for a nurse-role user.
// It is replaced wholesale on each check and cleared with the session;
// for any other role it is absent.
type SubscriptionStatus struct {
	Subscribed bool       `json:"subscribed"`
	Tier       string     `json:"subscription_tier,omitempty"`
	PeriodEnd  *time.Time `json:"subscription_end,omitempty"`
	Status     string     `json:"subscription_status,omitempty"`
}
