package gitlab

import gitlab "gitlab.com/gitlab-org/api/client-go"

// reportedTotal returns the X-Total header value, 0 when the header is missing.
func reportedTotal(resp *gitlab.Response) int {
	if resp == nil {
		return 0
	}

	return resp.TotalItems
}

// resolveTotal returns the reported total when it is positive, otherwise a best-effort estimate.
// A full page estimates one extra item so callers keep offering a next page; a short page is the last.
// A reported total of 0 is indistinguishable from a missing header and is treated as missing.
func resolveTotal(reported, page, perPage, returned int) int {
	if reported > 0 {
		return reported
	}

	seen := (page-1)*perPage + returned
	if returned >= perPage {
		return seen + 1
	}

	return seen
}
