// Package goquery provides a goquery-based structured-data parser that
// turns raw HTML into per-format property bags for Open Graph, RDFa,
// JSON-LD and Dublin Core.
package goquery

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/itemize"
)

// Ensure Parser implements itemize.StructuredDataParser at compile time.
var _ itemize.StructuredDataParser = (*Parser)(nil)

// rdfaInitialContext holds prefix bindings available without a
// declaration, per the RDFa initial context. Only the vocabularies the
// extractors read are carried.
var rdfaInitialContext = map[string]string{
	"og": "http://ogp.me/ns#",
}

// Parser extracts embedded structured data from HTML pages. A format
// absent from the page is absent from the result map, which is distinct
// from being present with empty bags. Malformed blocks within one
// format are logged and skipped so they never prevent extraction of the
// remaining formats.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new Parser. A nil logger uses the default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse extracts all formats from the page.
func (p *Parser) Parse(html string, baseURL string) (itemize.StructuredData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, itemize.Errorf(itemize.EINVALID, "failed to parse HTML: %v", err)
	}

	base := resolveBase(doc, baseURL)

	data := make(itemize.StructuredData)
	if bags := parseOpenGraph(doc); len(bags) > 0 {
		data[itemize.FormatOpenGraph] = bags
	}
	if bags := parseRDFa(doc, base); len(bags) > 0 {
		data[itemize.FormatRDFa] = bags
	}
	if bags := p.parseJSONLD(doc); len(bags) > 0 {
		data[itemize.FormatJSONLD] = bags
	}
	if bags := parseDublinCore(doc); len(bags) > 0 {
		data[itemize.FormatDublinCore] = bags
	}
	return data, nil
}

// resolveBase applies the document's <base href> against the request
// URL, so RDFa subjects match the page's effective base.
func resolveBase(doc *goquery.Document, baseURL string) string {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok || href == "" {
		return baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return baseURL
	}
	ref, err := url.Parse(href)
	if err != nil {
		return baseURL
	}
	return base.ResolveReference(ref).String()
}

// parseOpenGraph collects og:* and product namespace meta tags into a
// single property bag.
func parseOpenGraph(doc *goquery.Document) []itemize.Properties {
	bag := make(itemize.Properties)
	doc.Find("meta[property][content]").Each(func(_ int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		if !strings.HasPrefix(property, "og:") && !strings.HasPrefix(property, "product:") {
			return
		}
		content, _ := sel.Attr("content")
		bag[property] = content
	})
	if len(bag) == 0 {
		return nil
	}
	return []itemize.Properties{bag}
}

// parseRDFa collects property/content attribute pairs into subject-keyed
// bags. CURIE prefixes declared via prefix attributes (or bound by the
// initial context) are expanded; unexpandable keys are kept raw. Values
// are sequences of @value containers.
func parseRDFa(doc *goquery.Document, base string) []itemize.Properties {
	prefixes := collectPrefixes(doc)

	bags := make(map[string]itemize.Properties)
	var order []string

	doc.Find("[property][content]").Each(func(_ int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if property == "" {
			return
		}

		subject := subjectFor(sel, base)
		bag, ok := bags[subject]
		if !ok {
			bag = itemize.Properties{"@id": subject}
			bags[subject] = bag
			order = append(order, subject)
		}

		key := expandCURIE(property, prefixes)
		containers, _ := bag[key].([]any)
		bag[key] = append(containers, itemize.Properties{"@value": content})
	})

	result := make([]itemize.Properties, 0, len(order))
	for _, subject := range order {
		result = append(result, bags[subject])
	}
	return result
}

// collectPrefixes parses prefix attribute declarations of the form
// "p1: uri1 p2: uri2" anywhere in the document, layered over the
// initial context.
func collectPrefixes(doc *goquery.Document) map[string]string {
	prefixes := make(map[string]string, len(rdfaInitialContext))
	for p, uri := range rdfaInitialContext {
		prefixes[p] = uri
	}
	doc.Find("[prefix]").Each(func(_ int, sel *goquery.Selection) {
		decl, _ := sel.Attr("prefix")
		parts := strings.Fields(decl)
		for i := 0; i+1 < len(parts); i += 2 {
			p := strings.TrimSuffix(parts[i], ":")
			if p != "" {
				prefixes[p] = parts[i+1]
			}
		}
	})
	return prefixes
}

// subjectFor returns the RDFa subject of an element: the nearest
// ancestor's about/resource value, else the page base.
func subjectFor(sel *goquery.Selection, base string) string {
	for node := sel; node.Length() > 0; node = node.Parent() {
		if about, ok := node.Attr("about"); ok && about != "" {
			return about
		}
		if resource, ok := node.Attr("resource"); ok && resource != "" {
			return resource
		}
	}
	return base
}

// expandCURIE expands a prefixed property name against the declared
// prefixes. Properties without a known prefix are returned unchanged.
func expandCURIE(property string, prefixes map[string]string) string {
	prefix, local, ok := strings.Cut(property, ":")
	if !ok {
		return property
	}
	uri, ok := prefixes[prefix]
	if !ok {
		return property
	}
	return uri + local
}

// parseJSONLD decodes every application/ld+json script block. Top-level
// arrays and @graph containers flatten into individual bags. A malformed
// block is skipped, never fatal: it must not prevent extraction of the
// remaining blocks or formats.
func (p *Parser) parseJSONLD(doc *goquery.Document) []itemize.Properties {
	var bags []itemize.Properties
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var decoded any
		if err := json.Unmarshal([]byte(sel.Text()), &decoded); err != nil {
			p.logger.Warn("skipping malformed JSON-LD block", "err", err)
			return
		}
		bags = append(bags, flattenJSONLD(decoded)...)
	})
	return bags
}

// flattenJSONLD normalizes a decoded JSON-LD value into property bags.
func flattenJSONLD(decoded any) []itemize.Properties {
	switch t := decoded.(type) {
	case map[string]any:
		if graph, ok := t["@graph"].([]any); ok {
			return flattenJSONLD(graph)
		}
		return []itemize.Properties{t}
	case []any:
		var bags []itemize.Properties
		for _, item := range t {
			bags = append(bags, flattenJSONLD(item)...)
		}
		return bags
	default:
		return nil
	}
}

// parseDublinCore collects DC-prefixed meta elements into a single bag
// holding an elements sequence, names lowercased with the prefix
// stripped.
func parseDublinCore(doc *goquery.Document) []itemize.Properties {
	var elements []any
	doc.Find("meta[name][content]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, "dc.") && !strings.HasPrefix(lower, "dcterms.") {
			return
		}
		content, _ := sel.Attr("content")
		_, local, _ := strings.Cut(lower, ".")
		elements = append(elements, itemize.Properties{
			"name":    local,
			"content": content,
		})
	})
	if len(elements) == 0 {
		return nil
	}
	return []itemize.Properties{{"elements": elements}}
}
