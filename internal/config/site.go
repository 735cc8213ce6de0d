package config

import (
	"maps"
	"net/url"
	"strings"
)

// SiteConfig holds per-site settings.
type SiteConfig struct {
	// Cookie is sent with every request, e.g. "session=abc".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are added to every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the crawl depth. 0 keeps the global value.
	Depth int `yaml:"depth,omitempty"`

	// MaxChars overrides the analyzed markup length. 0 keeps the global value.
	MaxChars int `yaml:"maxChars,omitempty"`

	// IgnorePatterns are URL path globs skipped while crawling.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns, when set, are the only URL path globs crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File is the structure of the .a11yscan configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the settings for host merged over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	site, ok := cf.Sites[strings.ToLower(host)]
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.Depth != 0 {
		result.Depth = site.Depth
	}
	if site.MaxChars != 0 {
		result.MaxChars = site.MaxChars
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	return result
}

// SiteConfigFor returns the settings for the host of rawURL. A URL without
// a scheme is read as https.
func (cf *File) SiteConfigFor(rawURL string) SiteConfig {
	return cf.GetSiteConfig(HostOf(rawURL))
}

// HostOf returns the lowercase host name of rawURL without port, or "".
func HostOf(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
