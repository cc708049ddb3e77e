package domain

import (
	"strconv"
	"strings"
)

// ProjectSummary is a remote project as returned by a project search.
type ProjectSummary struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Namespace         string `json:"namespace"`
	PathWithNamespace string `json:"path_with_namespace"`
	Description       string `json:"description,omitempty"`
	LastActivityAt    string `json:"last_activity_at"`
}

// ProjectMember is a remote membership record of a project.
type ProjectMember struct {
	ID          int         `json:"id"`
	Username    string      `json:"username"`
	Name        string      `json:"name"`
	AvatarURL   string      `json:"avatar_url,omitempty"`
	AccessLevel AccessLevel `json:"access_level"`
	CreatedAt   string      `json:"created_at,omitempty"`
	ExpiresAt   string      `json:"expires_at,omitempty"`
}

// LocalMember is a cached person record of the local roster.
type LocalMember struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	UpdatedAt   string `json:"updated_at"`
	ProjectID   int    `json:"project_id,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
}

// LocalMemberUpsert carries the mutable fields of a LocalMember.
type LocalMemberUpsert struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	ProjectID   int    `json:"project_id,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
}

// LocalGroup is a named collection of local members.
type LocalGroup struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CreatedAt    string `json:"created_at"`
	MembersCount int    `json:"members_count"`
}

// BatchItemError describes a single failed unit of a batch.
type BatchItemError struct {
	UserID  int    `json:"user_id"`
	Message string `json:"message"`
}

// BatchResult is the aggregate outcome of a batch operation.
// Every submitted user id appears exactly once, either in SuccessUserIDs or in Failed.
type BatchResult struct {
	SuccessUserIDs []int            `json:"success_user_ids"`
	Failed         []BatchItemError `json:"failed"`
}

// ConnectionProfile holds the remote service coordinates.
type ConnectionProfile struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
}

// MaskedToken returns the token with everything but its last four characters hidden.
func (p ConnectionProfile) MaskedToken() string {
	const visible = 4
	if len(p.Token) <= visible {
		return strings.Repeat("*", len(p.Token))
	}

	return strings.Repeat("*", len(p.Token)-visible) + p.Token[len(p.Token)-visible:]
}

// Page is one page of a paginated listing.
// Total is best-effort when the remote service did not report it.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// HasNext reports whether another page is expected after this one.
func (p *Page[T]) HasNext() bool {
	return p.Page*p.PerPage < p.Total
}

// ProjectRef identifies a project either by numeric id or by namespaced path.
type ProjectRef struct {
	ID   int
	Path string
}

// ParseProjectRef turns user input into a ProjectRef.
// Input made only of ASCII digits is a numeric id, anything else is a path.
// Digits that do not survive a round trip through int ("007", overflow) are kept
// verbatim in Path, escaping leaves them unchanged on the wire.
func ParseProjectRef(raw string) (ProjectRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ProjectRef{}, NewValidationError("project is empty")
	}

	if !isDigits(raw) {
		return ProjectRef{Path: raw}, nil
	}

	id, err := strconv.Atoi(raw)
	if err != nil || strconv.Itoa(id) != raw {
		return ProjectRef{Path: raw}, nil
	}

	return ProjectRef{ID: id}, nil
}

// IsNumeric reports whether the reference is made of digits only, kept as an int or verbatim.
func (r ProjectRef) IsNumeric() bool {
	return r.IsID() || isDigits(r.Path)
}

// IsID reports whether the reference is a numeric project id.
func (r ProjectRef) IsID() bool {
	return r.Path == ""
}

func (r ProjectRef) String() string {
	if r.IsID() {
		return strconv.Itoa(r.ID)
	}

	return r.Path
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}

	return s != ""
}
