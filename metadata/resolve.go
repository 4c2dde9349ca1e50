package metadata

import "github.com/fwojciec/itemize"

// formatRank is the fixed format priority, highest first. Microdata and
// microformat are ranked for the day they grow extractors; the resolver
// skips them until then.
var formatRank = []itemize.Format{
	itemize.FormatOpenGraph,
	itemize.FormatRDFa,
	itemize.FormatJSONLD,
	itemize.FormatDublinCore,
	itemize.FormatMicrodata,
	itemize.FormatMicroformat,
}

var implemented = map[itemize.Format]bool{
	itemize.FormatOpenGraph:  true,
	itemize.FormatRDFa:       true,
	itemize.FormatJSONLD:     true,
	itemize.FormatDublinCore: true,
}

// Resolved holds the six canonical fields after cross-format
// reconciliation. Empty string means no format carried the field.
type Resolved struct {
	Title       string
	SiteName    string
	Description string
	ImageURL    string
	Price       string
	Currency    string
}

// Resolve reconciles structured data across formats. For each canonical
// field independently, the highest-priority format with a non-absent
// value wins; a filled field is never overwritten by a lower-priority
// format. A page may therefore take its title from Open Graph and its
// price from JSON-LD at the same time.
func Resolve(data itemize.StructuredData, pageURL string) Resolved {
	fields := make(map[itemize.Field]string, 6)

	for _, format := range formatRank {
		if !implemented[format] {
			continue
		}
		bags, ok := data[format]
		if !ok {
			continue
		}
		ex, err := NewExtractor(format, bags, pageURL)
		if err != nil {
			continue
		}
		for _, field := range itemize.Fields() {
			if _, done := fields[field]; done {
				continue
			}
			if v, ok := ex.Lookup(field); ok {
				fields[field] = v
			}
		}
	}

	return Resolved{
		Title:       fields[itemize.FieldTitle],
		SiteName:    fields[itemize.FieldSiteName],
		Description: fields[itemize.FieldDescription],
		ImageURL:    fields[itemize.FieldImageURL],
		Price:       fields[itemize.FieldPrice],
		Currency:    fields[itemize.FieldCurrency],
	}
}
