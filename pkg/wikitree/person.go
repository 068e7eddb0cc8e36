package wikitree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"codeberg.org/readeck/go-readability/v2"

	"github.com/jeroenl/wikitree-go/pkg/fetch"
	"github.com/jeroenl/wikitree-go/pkg/logger"
	"github.com/jeroenl/wikitree-go/pkg/microdata"
)

type resolveState int

const (
	stateUnresolved resolveState = iota
	stateResolved
	stateNotFound
)

// Person is a lazy handle on one WikiTree profile. It starts unresolved,
// knowing only its canonical key; the first attribute read runs the
// fetch-parse-materialize pipeline and the handle stays resolved for the
// rest of its life. A profile the site reports as absent moves the handle
// into a terminal not-found state instead.
//
// Handles are safe for concurrent use.
type Person struct {
	client *Client
	key    string

	mu    sync.Mutex
	state resolveState
	data  *personData
	err   error
}

// Key returns the canonical profile key. Available without network access.
func (p *Person) Key() string {
	return p.key
}

// URL returns the full profile page URL. Available without network access.
func (p *Person) URL() string {
	return p.client.profileURL(p.key)
}

// Equal reports whether both handles refer to the same profile, regardless
// of resolution state.
func (p *Person) Equal(other *Person) bool {
	return other != nil && p.key == other.key
}

// String renders the handle for debugging without triggering resolution.
func (p *Person) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == stateResolved && p.data.name != "" {
		return fmt.Sprintf("<Person %s %q>", p.key, p.data.name)
	}
	return fmt.Sprintf("<Person %s>", p.key)
}

// Resolve fetches and materializes the profile if that has not happened yet.
// Resolving an already-resolved handle is a no-op. Attribute accessors call
// this implicitly; it is exported for callers that want to front-load the
// network round trip or check for errors in one place.
func (p *Person) Resolve(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolveLocked(ctx)
}

// Name returns the full name, or "" when the profile does not publish one.
func (p *Person) Name(ctx context.Context) (string, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return "", err
	}
	return data.name, nil
}

// GivenName returns the given name, or "" when unknown.
func (p *Person) GivenName(ctx context.Context) (string, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return "", err
	}
	return data.givenName, nil
}

// FamilyName returns the family name, or "" when unknown.
func (p *Person) FamilyName(ctx context.Context) (string, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return "", err
	}
	return data.familyName, nil
}

// AdditionalName returns middle or alternate names, or "" when unknown.
func (p *Person) AdditionalName(ctx context.Context) (string, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return "", err
	}
	return data.additionalName, nil
}

// Gender returns the published gender, or "" when unknown.
func (p *Person) Gender(ctx context.Context) (string, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return "", err
	}
	return data.gender, nil
}

// Image returns the profile photo URL, or "" when the profile has none.
func (p *Person) Image(ctx context.Context) (string, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return "", err
	}
	return data.image, nil
}

// BirthDate returns the birth date. Missing components stay zero; a profile
// without any birth date yields the zero PartialDate, not an error.
func (p *Person) BirthDate(ctx context.Context) (PartialDate, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return PartialDate{}, err
	}
	return data.birthDate, nil
}

// DeathDate returns the death date, partial like BirthDate.
func (p *Person) DeathDate(ctx context.Context) (PartialDate, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return PartialDate{}, err
	}
	return data.deathDate, nil
}

// Parents returns the referenced parents as unresolved handles, in document
// order. None of them is fetched until its own attributes are read.
func (p *Person) Parents(ctx context.Context) ([]*Person, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return nil, err
	}
	return data.parents, nil
}

// Children returns the referenced children as unresolved handles.
func (p *Person) Children(ctx context.Context) ([]*Person, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return nil, err
	}
	return data.children, nil
}

// Spouses returns the referenced spouses as unresolved handles.
func (p *Person) Spouses(ctx context.Context) ([]*Person, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return nil, err
	}
	return data.spouses, nil
}

// Siblings returns the referenced siblings as unresolved handles.
func (p *Person) Siblings(ctx context.Context) ([]*Person, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return nil, err
	}
	return data.siblings, nil
}

// Extras returns the fields the profile published beyond the typed attribute
// set, keyed by property name (nested items flattened with dotted paths).
// The returned map is shared; callers must not modify it.
func (p *Person) Extras(ctx context.Context) (map[string][]string, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return nil, err
	}
	return data.extras, nil
}

// Warnings returns the per-field problems recorded during materialization.
// Each entry wraps ErrSchema; the affected attribute reads as unknown while
// every other attribute stays usable.
func (p *Person) Warnings(ctx context.Context) ([]FieldWarning, error) {
	data, err := p.resolved(ctx)
	if err != nil {
		return nil, err
	}
	return data.warnings, nil
}

// Bio extracts the readable biography text from the profile page. The page
// comes from the same cache the microdata pipeline uses, so Bio after any
// attribute access costs no extra fetch.
func (p *Person) Bio(ctx context.Context) (string, error) {
	if _, err := p.resolved(ctx); err != nil {
		return "", err
	}

	doc, err := p.fetchDocument(ctx)
	if err != nil {
		return "", err
	}

	base, err := url.Parse(p.URL())
	if err != nil {
		return "", fmt.Errorf("profile %s: %w: %v", p.key, ErrParse, err)
	}
	article, err := readability.FromReader(bytes.NewReader(doc), base)
	if err != nil {
		return "", fmt.Errorf("profile %s: %w: %v", p.key, ErrParse, err)
	}
	var b strings.Builder
	if err := article.RenderText(&b); err != nil {
		return "", fmt.Errorf("profile %s: %w: %v", p.key, ErrParse, err)
	}
	return strings.TrimSpace(b.String()), nil
}

func (p *Person) resolved(ctx context.Context) (*personData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.resolveLocked(ctx); err != nil {
		return nil, err
	}
	return p.data, nil
}

func (p *Person) resolveLocked(ctx context.Context) error {
	switch p.state {
	case stateResolved:
		return nil
	case stateNotFound:
		return p.err
	}

	doc, err := p.fetchDocument(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Terminal: the profile does not exist. Later accesses return
			// the same error without another fetch.
			p.state = stateNotFound
			p.err = err
		}
		return err
	}

	base, parseErr := url.Parse(p.URL())
	if parseErr != nil {
		return fmt.Errorf("profile %s: %w: %v", p.key, ErrParse, parseErr)
	}
	items, parseErr := microdata.Items(bytes.NewReader(doc), base)
	if parseErr != nil {
		return fmt.Errorf("profile %s: %w: %v", p.key, ErrParse, parseErr)
	}
	item := findPersonItem(items)
	if item == nil {
		return fmt.Errorf("profile %s: %w: no Person item on page", p.key, ErrParse)
	}

	p.data = materializePerson(p.client, item)
	p.state = stateResolved

	logger.Debug("Resolved profile", "key", p.key, "name", p.data.name)
	for _, warning := range p.data.warnings {
		logger.Warn("Field skipped during materialization", "key", p.key, "field", warning.Field, "err", warning.Err)
	}

	return nil
}

func (p *Person) fetchDocument(ctx context.Context) ([]byte, error) {
	pageURL := p.URL()
	doc, err := p.client.cache.GetOrFetch(ctx, p.key, func(ctx context.Context) ([]byte, error) {
		logger.Debug("Fetching profile", "key", p.key, "url", pageURL)
		return p.client.fetcher.Fetch(ctx, pageURL)
	})
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return nil, fmt.Errorf("profile %s: %w", p.key, ErrNotFound)
		}
		return nil, fmt.Errorf("profile %s: %w: %v", p.key, ErrRetrieval, err)
	}
	return doc, nil
}
