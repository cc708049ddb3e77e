package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AccessLevel is the numeric role scale used by GitLab.
type AccessLevel int

const (
	AccessGuest      AccessLevel = 10
	AccessReporter   AccessLevel = 20
	AccessDeveloper  AccessLevel = 30
	AccessMaintainer AccessLevel = 40
	AccessOwner      AccessLevel = 50
)

var accessLevelNames = map[AccessLevel]string{
	AccessGuest:      "Guest",
	AccessReporter:   "Reporter",
	AccessDeveloper:  "Developer",
	AccessMaintainer: "Maintainer",
	AccessOwner:      "Owner",
}

// Label returns a human readable label such as "Developer (30)".
func (l AccessLevel) Label() string {
	if name, ok := accessLevelNames[l]; ok {
		return fmt.Sprintf("%s (%d)", name, int(l))
	}

	return strconv.Itoa(int(l))
}

func (l AccessLevel) String() string {
	return l.Label()
}

// ParseAccessLevel accepts either a role name (case-insensitive) or a positive number.
func ParseAccessLevel(s string) (AccessLevel, error) {
	s = strings.TrimSpace(s)
	for level, name := range accessLevelNames {
		if strings.EqualFold(s, name) {
			return level, nil
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, NewValidationError(fmt.Sprintf("invalid access level %q", s))
	}

	return AccessLevel(n), nil
}
