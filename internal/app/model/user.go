package model

import "time"

// CRMCredential stores OAuth identity and tokens for one CRM provider,
// embedded in the user's profile. Tokens are secrets: only truncated
// previews may ever appear in logs or responses.
type CRMCredential struct {
	Provider     string `json:"provider"`
	Connected    bool   `json:"connected"`
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
	InstanceURL  string `json:"instance_url,omitempty"`
}

// User is the owning profile for recordings. End-user authentication is
// delegated to an external identity provider; we only resolve the bearer
// token it issued.
type User struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	APIToken  string        `json:"-"`
	CRM       CRMCredential `json:"crm"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
