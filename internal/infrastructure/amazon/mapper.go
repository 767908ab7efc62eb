package amazon

import (
	"fmt"
	"net/url"
	"regexp"
)

// imageCDNHosts are the Amazon image CDNs cover thumbnails are served from.
// Image URLs hosted anywhere else never make it into a result.
var imageCDNHosts = map[string]bool{
	"m.media-amazon.com":              true,
	"images-na.ssl-images-amazon.com": true,
	"images-eu.ssl-images-amazon.com": true,
	"images-fe.ssl-images-amazon.com": true,
}

// thumbSuffixPattern matches the size suffix tokens the storefront injects
// into thumbnail URLs, e.g. "._AC_UY218_." in "51x0FKmHEYL._AC_UY218_.jpg"
var thumbSuffixPattern = regexp.MustCompile(`\._[^/.]*_\.`)

// CanonicalImageURL converts a search-result thumbnail URL into the
// full-resolution cover URL by stripping the size suffix tokens. It reports
// false for URLs not hosted on a known image CDN.
func CanonicalImageURL(src string) (string, bool) {
	u, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", false
	}
	if !imageCDNHosts[u.Hostname()] {
		return "", false
	}

	u.Path = thumbSuffixPattern.ReplaceAllString(u.Path, ".")
	return u.String(), true
}

// ProductURL builds the canonical product page URL for an ASIN on the
// resolved storefront host
func ProductURL(host, asin string) string {
	if asin == "" {
		return fmt.Sprintf("https://%s", host)
	}
	return fmt.Sprintf("https://%s/dp/%s", host, asin)
}
