// Package localize resolves locale overlays against base-language rows.
package localize

import (
	"fmt"
	"net/http"
	"strings"
)

// Locale is a primary language subtag such as "en" or "de".
// The zero value means no locale was requested.
type Locale string

// None requests the base-language values.
const None Locale = ""

// Parse normalises a language tag ("de-DE", "fr_CA", "EN") to its primary subtag.
// Accept-Language style lists are accepted; only the first entry is used.
func Parse(tag string) Locale {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, ",;"); i >= 0 {
		tag = tag[:i]
	}
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "*" {
		return None
	}
	return Locale(tag)
}

// FromRequest reads the locale from the "locale" query parameter, falling
// back to the Accept-Language header.
func FromRequest(r *http.Request) Locale {
	if raw := r.URL.Query().Get("locale"); raw != "" {
		return Parse(raw)
	}
	return Parse(r.Header.Get("Accept-Language"))
}

// IsSet reports whether a locale was requested.
func (l Locale) IsSet() bool {
	return l != None
}

func (l Locale) String() string {
	return string(l)
}

// Overlay is a translated value for one entity in one locale.
type Overlay[T any] struct {
	Locale Locale
	Value  T
}

// Resolve returns the overlay value written for exactly the requested locale,
// or base when no locale is requested or no such overlay exists.
// Overlays in other locales are never used.
func Resolve[T any](base T, requested Locale, overlays ...Overlay[T]) T {
	if !requested.IsSet() {
		return base
	}
	for _, o := range overlays {
		if o.Locale == requested {
			return o.Value
		}
	}
	return base
}

// Table describes a base table and its locale overlay table.
type Table struct {
	Name    string
	Alias   string
	Columns []string

	Overlay        string
	OverlayAlias   string
	OverlayKey     string
	OverlayColumns []string
}

// Select builds the fallback-aware read query head:
//
//	SELECT b.c1, b.c2, o.l1, o.locale FROM base b
//	LEFT JOIN overlay o ON o.key = b.id AND o.locale = $n
//
// Overlay columns are NULL when no overlay exists for the locale bound at
// localeParam, which lets Resolve fall back to the base values.
// Callers append their own WHERE/ORDER BY clauses.
func (t Table) Select(localeParam int) string {
	cols := make([]string, 0, len(t.Columns)+len(t.OverlayColumns)+1)
	for _, c := range t.Columns {
		cols = append(cols, t.Alias+"."+c)
	}
	for _, c := range t.OverlayColumns {
		cols = append(cols, t.OverlayAlias+"."+c)
	}
	cols = append(cols, t.OverlayAlias+".locale")

	return fmt.Sprintf("SELECT %s FROM %s %s LEFT JOIN %s %s ON %s.%s = %s.id AND %s.locale = $%d",
		strings.Join(cols, ", "),
		t.Name, t.Alias,
		t.Overlay, t.OverlayAlias,
		t.OverlayAlias, t.OverlayKey, t.Alias,
		t.OverlayAlias, localeParam,
	)
}
