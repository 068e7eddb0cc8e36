package wikitree

import (
	"fmt"

	"github.com/jeroenl/wikitree-go/pkg/microdata"
)

// FieldWarning records a field that was present in the page but could not be
// coerced to its expected shape. Err wraps ErrSchema.
type FieldWarning struct {
	Field string
	Err   error
}

// personData is the resolved attribute set of one profile. Relationship
// fields hold unresolved handles so that cyclic references (spouses pointing
// at each other, parent/child back-references) never recurse.
type personData struct {
	name           string
	givenName      string
	familyName     string
	additionalName string
	gender         string
	image          string
	birthDate      PartialDate
	deathDate      PartialDate
	parents        []*Person
	children       []*Person
	spouses        []*Person
	siblings       []*Person
	extras         map[string][]string
	warnings       []FieldWarning
}

func findPersonItem(items []*microdata.Item) *microdata.Item {
	for _, item := range items {
		if item.HasType("http://schema.org/Person") || item.HasType("https://schema.org/Person") {
			return item
		}
	}
	return nil
}

// materializePerson maps the raw item onto the typed attribute set. It is
// tolerant per field: a malformed field becomes a warning and its attribute
// stays unknown, while every other field is still mapped. Unknown field
// names land in the extras bag instead of being dropped.
func materializePerson(client *Client, item *microdata.Item) *personData {
	d := &personData{extras: make(map[string][]string)}

	for _, prop := range item.Properties {
		switch prop.Name {
		case "name":
			d.scalarField(prop, &d.name)
		case "givenName":
			d.scalarField(prop, &d.givenName)
		case "familyName":
			d.scalarField(prop, &d.familyName)
		case "additionalName":
			d.scalarField(prop, &d.additionalName)
		case "gender":
			d.scalarField(prop, &d.gender)
		case "image":
			d.scalarField(prop, &d.image)
		case "birthDate":
			d.dateField(prop, &d.birthDate)
		case "deathDate":
			d.dateField(prop, &d.deathDate)
		case "parent":
			d.referenceField(client, prop, &d.parents)
		case "children":
			d.referenceField(client, prop, &d.children)
		case "spouse":
			d.referenceField(client, prop, &d.spouses)
		case "sibling":
			d.referenceField(client, prop, &d.siblings)
		default:
			d.extraField(prop.Name, prop.Value)
		}
	}

	return d
}

func (d *personData) warn(field string, format string, args ...any) {
	d.warnings = append(d.warnings, FieldWarning{
		Field: field,
		Err:   fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...)),
	})
}

func (d *personData) scalarField(prop microdata.Property, dst *string) {
	if prop.Value.IsItem() {
		d.warn(prop.Name, "expected text, found a nested item")
		return
	}
	if *dst == "" {
		*dst = prop.Value.Str
	}
}

func (d *personData) dateField(prop microdata.Property, dst *PartialDate) {
	if prop.Value.IsItem() {
		d.warn(prop.Name, "expected a date, found a nested item")
		return
	}
	date, err := ParsePartialDate(prop.Value.Str)
	if err != nil {
		d.warn(prop.Name, "%v", err)
		return
	}
	if dst.IsZero() {
		*dst = date
	}
}

// referenceField turns a nested Person item (or a bare profile URL) into an
// unresolved handle sharing the client's cache. The referenced profile is
// never fetched here.
func (d *personData) referenceField(client *Client, prop microdata.Property, dst *[]*Person) {
	ref := ""
	if prop.Value.IsItem() {
		value, ok := prop.Value.Item.First("url")
		if !ok || value.IsItem() {
			d.warn(prop.Name, "referenced person carries no profile URL")
			return
		}
		ref = value.Str
	} else {
		ref = prop.Value.Str
	}

	key, err := client.resolveRef(ref)
	if err != nil {
		d.warn(prop.Name, "unusable profile reference %q: %v", ref, err)
		return
	}
	*dst = append(*dst, client.personForKey(key))
}

// extraField keeps unmapped fields so no published data is silently lost.
// Nested items flatten into dotted paths ("marriage.startDate").
func (d *personData) extraField(name string, value microdata.Value) {
	if !value.IsItem() {
		d.extras[name] = append(d.extras[name], value.Str)
		return
	}
	for _, sub := range value.Item.Properties {
		d.extraField(name+"."+sub.Name, sub.Value)
	}
}
