// Package urlnorm derives storage keys from the URLs pages are observed at.
//
// Normalized URLs drop the scheme, a leading "www.", fragments, default
// ports, tracking parameters and trailing slashes so that trivially
// different URLs of one page share a key. Non-web schemes (blob:, file:)
// are kept verbatim apart from fragment removal.
package urlnorm

import (
	"net"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// DefaultBaseLocatorURL is the prefix synthesized primary identifiers share.
const DefaultBaseLocatorURL = "https://memex.cloud/ct/"

// trackingParams are query keys dropped during normalisation.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"dclid":   true,
	"msclkid": true,
	"mc_cid":  true,
	"mc_eid":  true,
}

// unsupportedSchemes cannot be revisited later, so locations under them are
// not worth recording as distinct locators.
var unsupportedSchemes = map[string]bool{
	"blob":                 true,
	"data":                 true,
	"about":                true,
	"chrome":               true,
	"chrome-extension":     true,
	"moz-extension":        true,
	"safari-web-extension": true,
	"edge":                 true,
	"view-source":          true,
	"javascript":           true,
}

// Normalize returns the storage key for rawURL.
func Normalize(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}

	scheme := schemeOf(raw)
	if scheme != "" && scheme != "http" && scheme != "https" {
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			raw = raw[:i]
		}
		return scheme + raw[len(scheme):]
	}
	if scheme == "" {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(stripScheme(rawURL), "/"))
	}

	host := normalizeHost(u)
	path := strings.TrimRight(u.EscapedPath(), "/")
	query := normalizeQuery(u.Query())

	out := host + path
	if query != "" {
		out += "?" + query
	}
	return out
}

// IsLocal reports whether rawURL points at on-device content.
func IsLocal(rawURL string) bool {
	switch schemeOf(rawURL) {
	case "file", "blob":
		return true
	default:
		return false
	}
}

// IsFileURL reports whether rawURL uses the file: scheme.
func IsFileURL(rawURL string) bool {
	return schemeOf(rawURL) == "file"
}

// IsBlobURL reports whether rawURL uses the blob: scheme.
func IsBlobURL(rawURL string) bool {
	return schemeOf(rawURL) == "blob"
}

// IsSupported reports whether rawURL can be revisited and indexed later.
func IsSupported(rawURL string) bool {
	return !unsupportedSchemes[schemeOf(rawURL)]
}

// BaseLocatorURL builds the canonical URL shared by all content carrying
// fingerprint in the given format.
func BaseLocatorURL(base, fingerprint, format string) string {
	if base == "" {
		base = DefaultBaseLocatorURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + fingerprint + "." + format
}

// IsBaseLocatorURL reports whether rawURL was produced by BaseLocatorURL.
func IsBaseLocatorURL(base, rawURL string) bool {
	if base == "" {
		base = DefaultBaseLocatorURL
	}
	return strings.HasPrefix(Normalize(rawURL), Normalize(base)+"/")
}

// PointsToPDF reports whether rawURL looks like a PDF document.
func PointsToPDF(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.HasSuffix(strings.ToLower(rawURL), ".pdf")
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// Parts are the host components of a URL.
type Parts struct {
	Hostname string
	Domain   string
}

// ExtractParts returns the hostname and registrable domain of rawURL.
func ExtractParts(rawURL string) Parts {
	raw := strings.TrimSpace(rawURL)
	if schemeOf(raw) == "" {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Parts{}
	}
	hostname := normalizeHost(u)
	if h, _, err := net.SplitHostPort(hostname); err == nil {
		hostname = h
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		domain = hostname
	}
	return Parts{Hostname: hostname, Domain: domain}
}

func schemeOf(raw string) string {
	raw = strings.TrimSpace(raw)
	i := strings.IndexByte(raw, ':')
	if i <= 0 {
		return ""
	}
	scheme := strings.ToLower(raw[:i])
	for j, r := range scheme {
		switch {
		case r >= 'a' && r <= 'z':
		case j > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return ""
		}
	}
	// "host:8080/path" carries no scheme.
	rest := raw[i+1:]
	if !strings.HasPrefix(rest, "//") && rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		return ""
	}
	return scheme
}

func stripScheme(raw string) string {
	if i := strings.Index(raw, "://"); i >= 0 {
		return raw[i+3:]
	}
	return raw
}

func normalizeHost(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	host = strings.TrimPrefix(host, "www.")

	port := u.Port()
	if port != "" && !(port == "80" && u.Scheme == "http") && !(port == "443" && u.Scheme == "https") {
		host = net.JoinHostPort(host, port)
	}
	return host
}

func normalizeQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		if trackingParams[k] || strings.HasPrefix(k, "utm_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), values[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			if v != "" {
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
	}
	return b.String()
}
