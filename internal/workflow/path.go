package workflow

import (
	"net/url"
	"strings"
)

// ComparisonPath converts a seal image URL into the path the compare
// endpoint expects. Absolute URLs are reduced to their path; a path under
// assetPrefix loses its leading slash. Anything else passes through.
func ComparisonPath(imageURL, assetPrefix string) string {
	p := imageURL
	if u, err := url.Parse(imageURL); err == nil && u.IsAbs() {
		p = u.Path
	}

	if assetPrefix != "" && strings.HasPrefix(p, assetPrefix) {
		return strings.TrimPrefix(p, "/")
	}
	return p
}
