package services

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

// NewHTTPClient returns the transport shared by the pipeline and the renewer.
// Session cookies live in its jar, so credentials travel with every request.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// Cookie is the persisted form of a jar cookie.
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ExportCookies returns the cookies the jar would send to baseURL.
func ExportCookies(jar http.CookieJar, baseURL string) ([]Cookie, error) {
	if jar == nil {
		return nil, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	var out []Cookie
	for _, c := range jar.Cookies(u) {
		out = append(out, Cookie{Name: c.Name, Value: c.Value})
	}
	return out, nil
}

// ImportCookies puts previously exported cookies back into the jar for baseURL.
func ImportCookies(jar http.CookieJar, baseURL string, cookies []Cookie) error {
	if jar == nil || len(cookies) == 0 {
		return nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}

	hc := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc = append(hc, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/", HttpOnly: true})
	}
	jar.SetCookies(u, hc)
	return nil
}

// JarCookies returns the raw jar cookies for baseURL.
func JarCookies(jar http.CookieJar, baseURL string) []*http.Cookie {
	u, err := url.Parse(baseURL)
	if err != nil || jar == nil {
		return nil
	}
	return jar.Cookies(u)
}
