// Package wikitree provides read-only access to the genealogical Person
// records published as schema.org microdata on WikiTree public profile
// pages. Handles are lazy: constructing one performs no network access, and
// the first attribute read fetches and parses the page. Cross-references
// (parents, children, spouses, siblings) resolve into further handles
// sharing the same client, so a family graph can be walked one profile at a
// time without eager crawling.
//
//	client, err := wikitree.NewClient(wikitree.NewClientParams{})
//	if err != nil {
//		...
//	}
//	p, err := client.Person("Sloan-518")
//	if err != nil {
//		...
//	}
//	name, err := p.Name(ctx) // first access fetches the page
package wikitree

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/jeroenl/wikitree-go/internal/util"
	"github.com/jeroenl/wikitree-go/pkg/fetch"
	"github.com/jeroenl/wikitree-go/pkg/logger"
	"github.com/jeroenl/wikitree-go/pkg/logger/console"
)

// DefaultBaseURL is the public WikiTree site.
const DefaultBaseURL = "https://www.wikitree.com"

const defaultUserAgent = "wikitree-go (+https://github.com/jeroenl/wikitree-go)"

// Client owns the document cache and constructs Person handles. Each client
// is fully independent: two clients never share cached documents or handle
// instances, so tests and parallel consumers cannot interfere with each
// other.
type Client struct {
	baseURL *url.URL
	fetcher fetch.Fetcher
	cache   *fetch.Cache

	mu      sync.Mutex
	persons map[string]*Person
}

// NewClientParams contains configuration for creating a Client.
type NewClientParams struct {
	// BaseURL overrides the WikiTree site root. Defaults to DefaultBaseURL.
	BaseURL string
	// Fetcher overrides the fetch capability entirely. When set, HTTPClient,
	// UserAgent and MaxRetries are ignored.
	Fetcher fetch.Fetcher
	// HTTPClient is used by the default fetcher. Timeouts belong here.
	HTTPClient *http.Client
	// UserAgent is sent by the default fetcher on every request.
	UserAgent string
	// MaxRetries bounds the default fetcher's attempts for transient
	// failures. Values below 1 mean a single attempt.
	MaxRetries int
}

// NewClient creates a client for the WikiTree site.
func NewClient(params NewClientParams) (*Client, error) {
	base := params.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", base)
	}

	fetcher := params.Fetcher
	if fetcher == nil {
		userAgent := params.UserAgent
		if userAgent == "" {
			userAgent = defaultUserAgent
		}
		fetcher = fetch.NewHTTPFetcher(fetch.NewHTTPFetcherParams{
			Client:     params.HTTPClient,
			UserAgent:  userAgent,
			MaxRetries: params.MaxRetries,
		})
	}

	return &Client{
		baseURL: parsed,
		fetcher: fetcher,
		cache:   fetch.NewCache(),
		persons: make(map[string]*Person),
	}, nil
}

// NewClientFromEnv creates a client configured from the environment
// (WIKITREE_BASE_URL, WIKITREE_USER_AGENT, WIKITREE_MAX_RETRIES,
// WIKITREE_DEBUG). A .env file in the working directory is honored.
func NewClientFromEnv() (*Client, error) {
	util.LoadEnv()

	if util.GetEnvBool("WIKITREE_DEBUG", false) {
		logger.Init(console.NewConsoleBackend(console.ConsoleBackendParams{
			Debug: true,
		}))
	}

	return NewClient(NewClientParams{
		BaseURL:    util.GetEnvString("WIKITREE_BASE_URL", DefaultBaseURL),
		UserAgent:  util.GetEnvString("WIKITREE_USER_AGENT", ""),
		MaxRetries: util.GetEnvInt("WIKITREE_MAX_RETRIES", 3),
	})
}

// Person constructs an unresolved handle for a profile reference (bare ID,
// full profile URL, or site-relative /wiki/ path). The reference is validated
// eagerly, so malformed input fails here with ErrInvalidReference; no network
// access happens until an attribute is read. References that normalize to the
// same canonical key share one handle instance per client.
func (c *Client) Person(ref string) (*Person, error) {
	key, err := ResolveID(ref)
	if err != nil {
		return nil, err
	}
	return c.personForKey(key), nil
}

func (c *Client) personForKey(key string) *Person {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.persons[key]; ok {
		return p
	}
	p := &Person{client: c, key: key}
	c.persons[key] = p
	return p
}

func (c *Client) profileURL(key string) string {
	return c.baseURL.JoinPath("wiki", key).String()
}

// resolveRef normalizes a reference extracted from a fetched page. Besides
// everything ResolveID accepts, it recognizes URLs on the client's own base
// host, which differs from the public site when a mirror is configured.
func (c *Client) resolveRef(ref string) (string, error) {
	key, err := ResolveID(ref)
	if err == nil {
		return key, nil
	}
	parsed, perr := url.Parse(strings.TrimSpace(ref))
	if perr == nil && parsed.Host != "" && strings.EqualFold(parsed.Host, c.baseURL.Host) {
		return idFromPath(parsed.EscapedPath())
	}
	return "", err
}
