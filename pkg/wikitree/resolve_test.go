package wikitree

import (
	"errors"
	"testing"
)

func TestResolveIDEquivalentReferences(t *testing.T) {
	tests := []struct {
		name string
		refs []string
		want string
	}{
		{
			name: "BareAndURLs",
			refs: []string{
				"Sloan-518",
				"  Sloan-518  ",
				"http://www.wikitree.com/wiki/Sloan-518",
				"https://www.wikitree.com/wiki/Sloan-518",
				"https://wikitree.com/wiki/Sloan-518",
				"https://WWW.WikiTree.com/wiki/Sloan-518",
				"/wiki/Sloan-518",
			},
			want: "Sloan-518",
		},
		{
			name: "SpacesBecomeUnderscores",
			refs: []string{
				"Van Duzer-3",
				"Van_Duzer-3",
				"https://www.wikitree.com/wiki/Van%20Duzer-3",
				"https://www.wikitree.com/wiki/Van_Duzer-3",
			},
			want: "Van_Duzer-3",
		},
		{
			name: "QueryAndFragmentIgnored",
			refs: []string{
				"https://www.wikitree.com/wiki/Carvell-50?public=1",
				"https://www.wikitree.com/wiki/Carvell-50#Biography",
			},
			want: "Carvell-50",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, ref := range tc.refs {
				got, err := ResolveID(ref)
				if err != nil {
					t.Fatalf("ResolveID(%q) failed: %v", ref, err)
				}
				if got != tc.want {
					t.Fatalf("ResolveID(%q) = %q, want %q", ref, got, tc.want)
				}
			}
		})
	}
}

func TestResolveIDInvalidReferences(t *testing.T) {
	tests := []struct {
		name string
		ref  string
	}{
		{"Empty", ""},
		{"Whitespace", "   "},
		{"PathSeparatorInID", "Sloan/518"},
		{"UnknownHost", "https://example.com/wiki/Sloan-518"},
		{"UnsupportedScheme", "ftp://www.wikitree.com/wiki/Sloan-518"},
		{"NotAProfilePath", "https://www.wikitree.com/genealogy/Sloan-518"},
		{"RelativeNotAProfilePath", "/genealogy/Sloan-518"},
		{"SiteRootOnly", "https://www.wikitree.com/wiki/"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ResolveID(tc.ref)
			if !errors.Is(err, ErrInvalidReference) {
				t.Fatalf("ResolveID(%q) err = %v, want ErrInvalidReference", tc.ref, err)
			}
		})
	}
}

func TestResolveIDIsDeterministic(t *testing.T) {
	first, err := ResolveID("Sloan-518")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ResolveID("Sloan-518")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("keys differ: %q vs %q", first, second)
	}
}
