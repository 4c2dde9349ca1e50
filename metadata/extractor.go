package metadata

import (
	"fmt"

	"github.com/fwojciec/itemize"
)

// Extractor looks up canonical fields in one format's property bags.
// Lookup returns ok=false when the field cannot be located; structure
// mismatches during traversal are treated as absent, never as errors.
type Extractor interface {
	Lookup(field itemize.Field) (value string, ok bool)
}

// NewExtractor returns the extractor variant for a format. The bags are
// the format's property bags as produced by the structured-data parser;
// pageURL is the page's own (final) URL, used by RDFa bag selection.
//
// Microdata and microformat are recognized formats without extractors:
// requesting one fails with EUNIMPLEMENTED, which is distinct from a
// field being absent.
func NewExtractor(format itemize.Format, bags []itemize.Properties, pageURL string) (Extractor, error) {
	switch format {
	case itemize.FormatOpenGraph:
		return &openGraphExtractor{bags: bags}, nil
	case itemize.FormatRDFa:
		return &rdfaExtractor{bags: bags, pageURL: pageURL}, nil
	case itemize.FormatJSONLD:
		return &jsonLDExtractor{bags: bags}, nil
	case itemize.FormatDublinCore:
		return &dublinCoreExtractor{bags: bags}, nil
	case itemize.FormatMicrodata, itemize.FormatMicroformat:
		return nil, itemize.Errorf(itemize.EUNIMPLEMENTED, "no extractor implemented for format %q", format)
	default:
		return nil, itemize.Errorf(itemize.EINVALID, "unknown format %q", format)
	}
}

// asString converts a scalar property value to a string. Non-scalar
// values (nested bags, sequences) report false: a vocabulary-structure
// mismatch means the field is absent, not an error.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64, int, int64, bool:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}

// mergeBags flattens property bags into one with last-bag-wins
// precedence, so vocabularies split across multiple page locations
// resolve to their final declaration.
func mergeBags(bags []itemize.Properties) itemize.Properties {
	merged := make(itemize.Properties)
	for _, bag := range bags {
		for k, v := range bag {
			merged[k] = v
		}
	}
	return merged
}

// openGraphExtractor reads og:* and product:price:* keys from Open Graph
// bags. Open Graph documents may split tags across locations, so all
// bags are merged before lookup.
type openGraphExtractor struct {
	bags []itemize.Properties
}

var openGraphKeys = map[itemize.Field]string{
	itemize.FieldTitle:       "og:title",
	itemize.FieldSiteName:    "og:site_name",
	itemize.FieldDescription: "og:description",
	itemize.FieldImageURL:    "og:image",
	itemize.FieldPrice:       "product:price:amount",
	itemize.FieldCurrency:    "product:price:currency",
}

func (e *openGraphExtractor) Lookup(field itemize.Field) (string, bool) {
	key, ok := openGraphKeys[field]
	if !ok {
		return "", false
	}
	v, ok := mergeBags(e.bags)[key]
	if !ok {
		return "", false
	}
	return asString(v)
}

// rdfaExtractor reads expanded Open Graph URIs from the single RDFa bag
// describing the page itself. Bags for unrelated referenced resources
// (subject mismatch) are ignored entirely.
type rdfaExtractor struct {
	bags    []itemize.Properties
	pageURL string
}

var rdfaKeys = map[itemize.Field]string{
	itemize.FieldTitle:       "http://ogp.me/ns#title",
	itemize.FieldSiteName:    "http://ogp.me/ns#site_name",
	itemize.FieldDescription: "http://ogp.me/ns#description",
	itemize.FieldImageURL:    "http://ogp.me/ns#image",
	itemize.FieldPrice:       "product:price:amount",
	itemize.FieldCurrency:    "product:price:currency",
}

func (e *rdfaExtractor) Lookup(field itemize.Field) (string, bool) {
	key, ok := rdfaKeys[field]
	if !ok {
		return "", false
	}

	var page itemize.Properties
	for _, bag := range e.bags {
		if id, _ := bag["@id"].(string); id == e.pageURL {
			page = bag
			break
		}
	}
	if page == nil {
		return "", false
	}

	raw, ok := page[key]
	if !ok {
		return "", false
	}

	// Values are sequences of {"@value": ...} containers; flatten them
	// last-wins and unwrap the scalar. A key without @value is absent.
	containers, ok := raw.([]any)
	if !ok {
		return "", false
	}
	merged := make(itemize.Properties)
	for _, c := range containers {
		bag, ok := c.(itemize.Properties)
		if !ok {
			continue
		}
		for k, v := range bag {
			merged[k] = v
		}
	}
	v, ok := merged["@value"]
	if !ok {
		return "", false
	}
	return asString(v)
}

// jsonLDExtractor reads fields from the first JSON-LD bag whose declared
// type matches the field's expected type. A field with no matching bag
// type is absent even when some other bag carries the key.
type jsonLDExtractor struct {
	bags []itemize.Properties
}

var jsonLDKeys = map[itemize.Field]string{
	itemize.FieldTitle:    "name",
	itemize.FieldImageURL: "image",
}

var jsonLDTypes = map[itemize.Field]string{
	itemize.FieldTitle:       "Product",
	itemize.FieldDescription: "Product",
	itemize.FieldImageURL:    "Product",
	itemize.FieldPrice:       "Product",
	itemize.FieldCurrency:    "Product",
	itemize.FieldSiteName:    "Organization",
}

func (e *jsonLDExtractor) Lookup(field itemize.Field) (string, bool) {
	wantType, ok := jsonLDTypes[field]
	if !ok {
		return "", false
	}

	var bag itemize.Properties
	for _, b := range e.bags {
		if typeMatches(b["@type"], wantType) {
			bag = b
			break
		}
	}
	if bag == nil {
		return "", false
	}

	key := string(field)
	if translated, ok := jsonLDKeys[field]; ok {
		key = translated
	}
	v, ok := bag[key]
	if !ok {
		return "", false
	}
	return asString(v)
}

// typeMatches reports whether a JSON-LD @type declaration names want.
// Declarations may be a single string or a sequence of strings.
func typeMatches(declared any, want string) bool {
	switch t := declared.(type) {
	case string:
		return t == want
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// dublinCoreExtractor reads Dublin Core elements. Element names map
// directly to canonical field names with no translation.
type dublinCoreExtractor struct {
	bags []itemize.Properties
}

func (e *dublinCoreExtractor) Lookup(field itemize.Field) (string, bool) {
	for _, bag := range e.bags {
		elements, ok := bag["elements"].([]any)
		if !ok {
			continue
		}
		for _, el := range elements {
			element, ok := el.(itemize.Properties)
			if !ok {
				continue
			}
			if name, _ := element["name"].(string); name != string(field) {
				continue
			}
			if v, ok := asString(element["content"]); ok {
				return v, true
			}
		}
	}
	return "", false
}
