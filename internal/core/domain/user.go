package domain

import "time"

// User mirrors the persisted representation in the users table.
type User struct {
	ID                    string
	Username              string
	Email                 string
	PasswordHash          string
	Enabled               bool
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// UserCandidate holds the fields of a record that is about to be created.
// Flags are pointers so that a missing value can be told apart from false.
type UserCandidate struct {
	Username              string
	Email                 string
	PasswordHash          string
	Enabled               *bool
	AccountNonExpired     *bool
	AccountNonLocked      *bool
	CredentialsNonExpired *bool
}

// NewUserCandidate returns a candidate with every account flag set to true.
func NewUserCandidate(username, email, passwordHash string) UserCandidate {
	return UserCandidate{
		Username:              username,
		Email:                 email,
		PasswordHash:          passwordHash,
		Enabled:               boolPtr(true),
		AccountNonExpired:     boolPtr(true),
		AccountNonLocked:      boolPtr(true),
		CredentialsNonExpired: boolPtr(true),
	}
}

// Build materialises the candidate into a record stamped with the provided time.
// The ID is left empty; the store assigns it.
func (c UserCandidate) Build(now time.Time) User {
	return User{
		Username:              c.Username,
		Email:                 c.Email,
		PasswordHash:          c.PasswordHash,
		Enabled:               derefBool(c.Enabled),
		AccountNonExpired:     derefBool(c.AccountNonExpired),
		AccountNonLocked:      derefBool(c.AccountNonLocked),
		CredentialsNonExpired: derefBool(c.CredentialsNonExpired),
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// UserPatch describes a partial update. Nil fields keep their stored value.
type UserPatch struct {
	Username              *string
	Email                 *string
	PasswordHash          *string
	Enabled               *bool
	AccountNonExpired     *bool
	AccountNonLocked      *bool
	CredentialsNonExpired *bool
}

// UsernameChange reports the new username when the patch sets one that differs from current.
func (p UserPatch) UsernameChange(current User) (string, bool) {
	if p.Username == nil || *p.Username == current.Username {
		return "", false
	}
	return *p.Username, true
}

// EmailChange reports the new email when the patch sets one that differs from current.
func (p UserPatch) EmailChange(current User) (string, bool) {
	if p.Email == nil || *p.Email == current.Email {
		return "", false
	}
	return *p.Email, true
}

// SetFields lists the names of the fields the patch sets.
func (p UserPatch) SetFields() []string {
	var fields []string
	if p.Username != nil {
		fields = append(fields, FieldUsername)
	}
	if p.Email != nil {
		fields = append(fields, FieldEmail)
	}
	if p.PasswordHash != nil {
		fields = append(fields, FieldPasswordHash)
	}
	if p.Enabled != nil {
		fields = append(fields, FieldEnabled)
	}
	if p.AccountNonExpired != nil {
		fields = append(fields, FieldAccountNonExpired)
	}
	if p.AccountNonLocked != nil {
		fields = append(fields, FieldAccountNonLocked)
	}
	if p.CredentialsNonExpired != nil {
		fields = append(fields, FieldCredentialsNonExpired)
	}
	return fields
}

// Apply merges the patch into existing. CreatedAt and ID are carried over untouched.
func (p UserPatch) Apply(existing User, now time.Time) User {
	merged := existing
	if p.Username != nil {
		merged.Username = *p.Username
	}
	if p.Email != nil {
		merged.Email = *p.Email
	}
	if p.PasswordHash != nil {
		merged.PasswordHash = *p.PasswordHash
	}
	if p.Enabled != nil {
		merged.Enabled = *p.Enabled
	}
	if p.AccountNonExpired != nil {
		merged.AccountNonExpired = *p.AccountNonExpired
	}
	if p.AccountNonLocked != nil {
		merged.AccountNonLocked = *p.AccountNonLocked
	}
	if p.CredentialsNonExpired != nil {
		merged.CredentialsNonExpired = *p.CredentialsNonExpired
	}
	merged.UpdatedAt = now
	if merged.UpdatedAt.Before(merged.CreatedAt) {
		merged.UpdatedAt = merged.CreatedAt
	}
	return merged
}

// DeleteAllResult describes one successful bulk deletion. It is never persisted.
type DeleteAllResult struct {
	DeletedCount int
	ExecutedAt   time.Time
	Environment  string
}

func boolPtr(v bool) *bool {
	return &v
}

func derefBool(v *bool) bool {
	return v != nil && *v
}
