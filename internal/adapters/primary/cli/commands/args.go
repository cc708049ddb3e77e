package commands

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/denchenko/gmm/internal/core/domain"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

func parseUserIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	seen := make(map[int]struct{}, len(args))

	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			id, err := strconv.Atoi(part)
			if err != nil || id <= 0 {
				return nil, domain.NewValidationError(fmt.Sprintf("invalid user id %q", part))
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, domain.NewValidationError("no user ids given")
	}

	return ids, nil
}

func parseGroupID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(fmt.Sprintf("invalid group id %q", raw))
	}

	return id, nil
}

func validatePaging(page, perPage int) error {
	if page < 1 {
		return domain.NewValidationError("--page must be at least 1")
	}
	if perPage < 1 || perPage > maxPerPage {
		return domain.NewValidationError(fmt.Sprintf("--per-page must be between 1 and %d", maxPerPage))
	}

	return nil
}

// membersPageURL returns the web page listing the members of a project.
func membersPageURL(baseURL string, ref domain.ProjectRef) string {
	if ref.IsNumeric() {
		return baseURL + "/projects/" + ref.String()
	}

	segments := strings.Split(strings.Trim(ref.Path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return baseURL + "/" + strings.Join(segments, "/") + "/-/project_members"
}
