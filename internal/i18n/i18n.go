// Package i18n resolves translation keys for the desk. Catalogs are embedded JSON
// files keyed by dotted paths; the locale is negotiated with golang.org/x/text.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

// DefaultLocale is used when negotiation finds nothing better and as the fallback
// catalog for keys missing in the selected locale.
const DefaultLocale = "en"

// Func translates key, interpolating {name} placeholders from params. Unknown keys
// are echoed back unchanged.
type Func func(key string, params map[string]any) string

// Catalog holds every embedded locale.
type Catalog struct {
	tags     []language.Tag
	messages []map[string]string
	matcher  language.Matcher
}

// Load parses the embedded catalogs.
func Load() (*Catalog, error) {
	entries, err := localesFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locales: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	// The matcher treats the first tag as the default.
	sort.SliceStable(names, func(i, j int) bool {
		if names[i] == DefaultLocale || names[j] == DefaultLocale {
			return names[i] == DefaultLocale
		}
		return names[i] < names[j]
	})

	c := &Catalog{}
	for _, name := range names {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("i18n: locale %q: %w", name, err)
		}
		raw, err := localesFS.ReadFile(path.Join("locales", name+".json"))
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", name, err)
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", name, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)

		c.tags = append(c.tags, tag)
		c.messages = append(c.messages, flat)
	}
	if len(c.tags) == 0 {
		return nil, fmt.Errorf("i18n: no locales embedded")
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Locales lists the available locale tags, default first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// Resolve returns the best available locale for a user preference such as
// "es-MX" or an Accept-Language header value.
func (c *Catalog) Resolve(preference string) string {
	return c.tags[c.index(preference)].String()
}

// Translator returns a Func bound to the negotiated locale.
func (c *Catalog) Translator(preference string) Func {
	idx := c.index(preference)
	primary := c.messages[idx]
	fallback := c.messages[0]

	return func(key string, params map[string]any) string {
		msg, ok := primary[key]
		if !ok {
			msg, ok = fallback[key]
		}
		if !ok {
			return key
		}
		return interpolate(msg, params)
	}
}

func (c *Catalog) index(preference string) int {
	if preference == "" {
		return 0
	}
	_, idx := language.MatchStrings(c.matcher, preference)
	if idx < 0 || idx >= len(c.tags) {
		return 0
	}
	return idx
}

func interpolate(msg string, params map[string]any) string {
	if len(params) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Identity is a Func that echoes keys; handy where no catalog is wired.
func Identity(key string, _ map[string]any) string { return key }
