// Package cookies exports browser cookies to a Netscape-format file that
// yt-dlp can consume via --cookies.
package cookies

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/browserutils/kooky"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"

	// Register all browser cookie store readers.
	_ "github.com/browserutils/kooky/browser/all"
)

// Manager caches cookies per registrable domain so repeated exports do not
// hit the browser profile stores on every request.
type Manager struct {
	mu      sync.RWMutex
	cookies map[string][]*http.Cookie
}

func NewManager() *Manager {
	return &Manager{cookies: make(map[string][]*http.Cookie)}
}

// ForURL returns the cookies for rawURL's registrable domain, reading
// browser stores on the first call per domain.
func (m *Manager) ForURL(rawURL string) ([]*http.Cookie, error) {
	domain, err := baseDomain(rawURL)
	if err != nil {
		return nil, fmt.Errorf("extracting base domain: %w", err)
	}

	m.mu.RLock()
	cached, ok := m.cookies[domain]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	loaded := loadDomainCookies(domain)

	m.mu.Lock()
	m.cookies[domain] = loaded
	m.mu.Unlock()

	return loaded, nil
}

// ExportToFile writes the cookies for rawURL to path in Netscape format and
// reports whether anything was written. With no cookies found the file is
// left untouched so callers can skip --cookies entirely.
func (m *Manager) ExportToFile(rawURL, path string) (bool, error) {
	cookies, err := m.ForURL(rawURL)
	if err != nil {
		return false, err
	}
	if len(cookies) == 0 {
		log.Info().Str("url", rawURL).Msg("No browser cookies found, skipping cookie file")
		return false, nil
	}
	if err := writeNetscapeFile(cookies, path); err != nil {
		return false, err
	}
	log.Debug().Int("count", len(cookies)).Str("file", path).Msg("Exported cookies")
	return true, nil
}

// loadDomainCookies walks every detected browser cookie store. Stores that
// fail to open are skipped, so one locked profile never hides the rest.
func loadDomainCookies(domain string) []*http.Cookie {
	var out []*http.Cookie
	for _, store := range kooky.FindAllCookieStores() {
		found, err := store.ReadCookies(kooky.Valid, kooky.Domain(domain))
		if err != nil {
			log.Debug().Err(err).Str("browser", store.Browser()).Str("domain", domain).
				Msg("Reading browser cookies failed")
			continue
		}
		for _, c := range found {
			out = append(out, &http.Cookie{
				Name:    c.Name,
				Value:   c.Value,
				Path:    c.Path,
				Domain:  c.Domain,
				Expires: c.Expires,
				Secure:  c.Secure,
			})
		}
	}
	if len(out) == 0 {
		log.Info().Str("domain", domain).Msg("No cookies found")
	}
	return out
}

func writeNetscapeFile(cookies []*http.Cookie, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cErr := f.Close(); cErr != nil {
			log.Error().Err(cErr).Str("file", path).Msg("Closing cookie file failed")
		}
	}()

	if _, err := f.WriteString("# Netscape HTTP Cookie File\n# https://curl.haxx.se/rfc/cookie_spec.html\n# This is a generated file! Do not edit.\n\n"); err != nil {
		return err
	}

	for _, c := range cookies {
		domain := c.Domain
		if !strings.HasPrefix(domain, ".") && strings.Count(domain, ".") > 1 {
			domain = "." + domain
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		expires := int64(0)
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		if _, err := fmt.Fprintf(f, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, "FALSE", c.Path, secure, expires, c.Name, c.Value); err != nil {
			return err
		}
	}
	return nil
}

// baseDomain returns the registrable domain for a URL.
func baseDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return publicsuffix.EffectiveTLDPlusOne(u.Hostname())
}
