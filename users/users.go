package users

import (
	"slices"

	"github.com/jrsteele09/dashboarrd/internal/utils"
	"github.com/jrsteele09/dashboarrd/token"
)

// AdminGroup is the group whose members get the administrative UI.
const AdminGroup = "misterobots"

// User is the authenticated user view. It is derived from the ID token or the
// identity endpoint on demand and never stored on its own.
type User struct {
	SubjectID   string   `json:"sub,omitempty"`          // Provider subject, empty for cookie sessions
	Username    string   `json:"username"`               // Login name
	DisplayName string   `json:"display_name,omitempty"` // Human readable name
	Email       string   `json:"email,omitempty"`        // Primary email address
	Groups      []string `json:"groups"`                 // Provider groups
	IsAdmin     bool     `json:"is_admin"`               // Member of AdminGroup
}

// IdentityInfo is the body of the cookie-authenticated identity endpoint.
type IdentityInfo struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Emails      []string `json:"emails"`
	Groups      []string `json:"groups"`
}

// FromIDClaims builds the user view from ID token claims.
func FromIDClaims(c *token.IDClaims) *User {
	if c == nil {
		return nil
	}
	groups := c.Groups
	if groups == nil {
		groups = []string{}
	}
	return &User{
		SubjectID:   c.Subject,
		Username:    utils.FirstNonEmpty(c.PreferredUsername, c.Subject),
		DisplayName: c.Name,
		Email:       c.Email,
		Groups:      groups,
		IsAdmin:     slices.Contains(groups, AdminGroup),
	}
}

// FromIdentity builds the user view from the identity endpoint. Returns nil when
// the response carries no username.
func FromIdentity(info *IdentityInfo) *User {
	if info == nil || info.Username == "" {
		return nil
	}
	groups := info.Groups
	if groups == nil {
		groups = []string{}
	}
	email := info.Email
	if email == "" && len(info.Emails) > 0 {
		email = info.Emails[0]
	}
	return &User{
		Username:    info.Username,
		DisplayName: utils.FirstNonEmpty(info.DisplayName, info.Username),
		Email:       email,
		Groups:      groups,
		IsAdmin:     slices.Contains(groups, AdminGroup),
	}
}

// InGroup reports whether the user belongs to group.
func (u *User) InGroup(group string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Groups, group)
}

// IsUserAdmin is nil-safe IsAdmin.
func IsUserAdmin(u *User) bool {
	return u != nil && u.InGroup(AdminGroup)
}
