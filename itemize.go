// Package itemize provides a bookmark manager that groups links ("links")
// into named collections ("itemizes") and enriches every link with page
// metadata (title, description, preview image, price) scraped from the
// target URL. Metadata is reconciled across several embedded vocabularies
// (Open Graph, RDFa, JSON-LD, Dublin Core) using a fixed priority order
// with per-field fallback.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, rod/).
package itemize
