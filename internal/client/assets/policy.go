package assets

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Decision is what the worker does with an intercepted request.
type Decision int

const (
	// Default leaves the request to plain network handling.
	Default Decision = iota
	// Bypass is Default for requests the worker must never touch.
	Bypass
	// Navigate tries the network and falls back to the cached entry document.
	Navigate
)

func (d Decision) String() string {
	switch d {
	case Bypass:
		return "bypass"
	case Navigate:
		return "navigate"
	default:
		return "default"
	}
}

var (
	DefaultFontHosts      = []string{"fonts.googleapis.com", "fonts.gstatic.com"}
	codePathPrefixes      = []string{"/styles/", "/scripts/"}
	codeExtensions        = map[string]bool{".css": true, ".js": true, ".mjs": true, ".woff": true, ".woff2": true, ".ttf": true, ".otf": true}
	codeFetchDestinations = map[string]bool{"style": true, "script": true, "font": true}
)

// Policy decides how intercepted requests are handled. Rules apply in
// order: non-GET, the remote API, code and styling, then navigations.
type Policy struct {
	API       *url.URL
	FontHosts []string
}

// NewPolicy builds a policy that never touches requests under apiBase.
func NewPolicy(apiBase string) (Policy, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return Policy{}, err
	}
	return Policy{API: u, FontHosts: DefaultFontHosts}, nil
}

func (p Policy) Decide(r *http.Request) Decision {
	if r.Method != http.MethodGet {
		return Bypass
	}
	if p.isAPI(r.URL) {
		return Bypass
	}
	if p.isCode(r) {
		return Bypass
	}
	if isNavigation(r) {
		return Navigate
	}
	return Default
}

func (p Policy) isAPI(u *url.URL) bool {
	if p.API == nil || !strings.EqualFold(u.Host, p.API.Host) {
		return false
	}
	base := strings.TrimRight(p.API.Path, "/")
	return base == "" || u.Path == base || strings.HasPrefix(u.Path, base+"/")
}

func (p Policy) isCode(r *http.Request) bool {
	for _, h := range p.FontHosts {
		if strings.EqualFold(r.URL.Hostname(), h) {
			return true
		}
	}
	if codeFetchDestinations[r.Header.Get("Sec-Fetch-Dest")] {
		return true
	}
	for _, prefix := range codePathPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return codeExtensions[strings.ToLower(path.Ext(r.URL.Path))]
}

// isNavigation recognizes top-level document loads. Without fetch metadata
// an Accept header preferring HTML counts.
func isNavigation(r *http.Request) bool {
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
