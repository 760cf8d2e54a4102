package models

import "slices"

// Subscription plans. New accounts start on SubscriptionStarter.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

var Subscriptions = []string{SubscriptionStarter, SubscriptionPro, SubscriptionBusiness}

func ValidSubscription(s string) bool {
	return slices.Contains(Subscriptions, s)
}

type User struct {
	ID                int64
	Email             string
	PassHash          []byte
	Subscription      string
	AvatarURL         string
	Verified          bool
	VerificationToken string
	// SessionToken is the only token Authenticate accepts. Empty means
	// signed out.
	SessionToken string
}

// UserPatch is a partial update: nil fields are left untouched.
type UserPatch struct {
	Verified          *bool
	VerificationToken *string
	SessionToken      *string
	AvatarURL         *string
	Subscription      *string
}

type Contact struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Favorite bool   `json:"favorite"`
	Owner    int64  `json:"owner"`
}

type ContactPatch struct {
	Name     *string
	Email    *string
	Phone    *string
	Favorite *bool
}

// Empty reports whether the patch carries no fields.
func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Favorite == nil
}

// Message is an outbound email, as published to the mail queue.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
