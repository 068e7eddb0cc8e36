// Package microdata extracts HTML microdata (itemscope/itemprop/itemtype
// annotations) into a traversable item structure. Extraction is a pure
// function of the document content: property order and multiplicity are
// preserved exactly as they appear in the markup.
package microdata

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoItems is returned when a document contains no top-level microdata
// item.
var ErrNoItems = errors.New("microdata: no top-level items found")

// Item is one microdata item: an ordered list of named properties plus the
// item's declared types.
type Item struct {
	Types      []string
	ItemID     string
	Properties []Property
}

// Property is a single named value of an item. A name can occur multiple
// times on the same item; every occurrence is kept.
type Property struct {
	Name  string
	Value Value
}

// Value is either a scalar string or a nested item, never both.
type Value struct {
	Str  string
	Item *Item
}

// IsItem reports whether the value is a nested item.
func (v Value) IsItem() bool {
	return v.Item != nil
}

// HasType reports whether the item declares the given itemtype.
func (it *Item) HasType(t string) bool {
	for _, typ := range it.Types {
		if typ == t {
			return true
		}
	}
	return false
}

// All returns every value recorded under name, in document order.
func (it *Item) All(name string) []Value {
	var values []Value
	for _, prop := range it.Properties {
		if prop.Name == name {
			values = append(values, prop.Value)
		}
	}
	return values
}

// First returns the first value recorded under name.
func (it *Item) First(name string) (Value, bool) {
	for _, prop := range it.Properties {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return Value{}, false
}

// Items parses an HTML document and returns its top-level microdata items. A
// top-level item is an element carrying itemscope without itemprop. URL-typed
// property values (href/src) are resolved against base when base is non-nil.
func Items(r io.Reader, base *url.URL) ([]*Item, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("microdata: failed to parse document: %w", err)
	}

	var items []*Item
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasAttr(n, "itemscope") && !hasAttr(n, "itemprop") {
			items = append(items, parseItem(n, base))
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if len(items) == 0 {
		return nil, ErrNoItems
	}
	return items, nil
}

// parseItem builds the item rooted at n, collecting itemprop descendants.
// Descendants inside a nested itemscope belong to the nested item, not to n.
func parseItem(n *html.Node, base *url.URL) *Item {
	item := &Item{
		Types:  strings.Fields(attr(n, "itemtype")),
		ItemID: attr(n, "itemid"),
	}

	var collect func(node *html.Node)
	collect = func(node *html.Node) {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			names := strings.Fields(attr(child, "itemprop"))
			if len(names) > 0 {
				var value Value
				if hasAttr(child, "itemscope") {
					value = Value{Item: parseItem(child, base)}
				} else {
					value = Value{Str: scalarValue(child, base)}
				}
				for _, name := range names {
					item.Properties = append(item.Properties, Property{Name: name, Value: value})
				}
				if value.IsItem() {
					continue
				}
			} else if hasAttr(child, "itemscope") {
				// An itemscope without itemprop opens an unrelated item;
				// nothing below it belongs to this one.
				continue
			}
			collect(child)
		}
	}
	collect(n)

	return item
}

// scalarValue extracts the property value of a non-itemscope element,
// following the WHATWG microdata rules for value-carrying attributes.
func scalarValue(n *html.Node, base *url.URL) string {
	switch n.Data {
	case "a", "area", "link":
		return resolveRef(attr(n, "href"), base)
	case "img", "audio", "video", "embed", "iframe", "source", "track":
		return resolveRef(attr(n, "src"), base)
	case "object":
		return resolveRef(attr(n, "data"), base)
	case "meta":
		return attr(n, "content")
	case "data", "meter":
		return attr(n, "value")
	case "time":
		if dt := attr(n, "datetime"); dt != "" {
			return dt
		}
	}
	return collapseWhitespace(textContent(n))
}

func resolveRef(ref string, base *url.URL) string {
	if ref == "" || base == nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}
