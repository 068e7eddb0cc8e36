package wikitree

import (
	"fmt"
	"net/url"
	"strings"
)

const wikiPathPrefix = "/wiki/"

// ResolveID normalizes a profile reference into its canonical key. The
// reference may be a bare profile ID ("Sloan-518"), a full profile URL
// ("https://www.wikitree.com/wiki/Sloan-518"), or a site-relative path
// ("/wiki/Sloan-518"). Equivalent references always produce the same key.
// ResolveID is pure: it performs no network access.
func ResolveID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}

	if strings.Contains(ref, "://") {
		parsed, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidReference, ref, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidReference, parsed.Scheme)
		}
		host := strings.ToLower(parsed.Hostname())
		if host != "www.wikitree.com" && host != "wikitree.com" {
			return "", fmt.Errorf("%w: unknown host %q", ErrInvalidReference, parsed.Hostname())
		}
		return idFromPath(parsed.EscapedPath())
	}

	if strings.HasPrefix(ref, "/") {
		return idFromPath(ref)
	}

	return normalizeID(ref)
}

func idFromPath(path string) (string, error) {
	if !strings.HasPrefix(path, wikiPathPrefix) {
		return "", fmt.Errorf("%w: path %q does not point at a profile page", ErrInvalidReference, path)
	}
	return normalizeID(strings.TrimPrefix(path, wikiPathPrefix))
}

func normalizeID(id string) (string, error) {
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	id = strings.TrimSpace(id)
	// WikiTree writes spaces in profile names as underscores.
	id = strings.ReplaceAll(id, " ", "_")
	if id == "" {
		return "", fmt.Errorf("%w: empty profile ID", ErrInvalidReference)
	}
	if strings.ContainsAny(id, "/\\?#\t\n") {
		return "", fmt.Errorf("%w: profile ID %q contains path separators", ErrInvalidReference, id)
	}
	return id, nil
}
