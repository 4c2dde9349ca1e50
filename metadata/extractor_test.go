package metadata_test

import (
	"testing"

	"github.com/fwojciec/itemize"
	"github.com/fwojciec/itemize/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageURL = "https://example.com/product"

func TestNewExtractor_UnimplementedFormats(t *testing.T) {
	t.Parallel()

	for _, format := range []itemize.Format{itemize.FormatMicrodata, itemize.FormatMicroformat} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			_, err := metadata.NewExtractor(format, nil, testPageURL)
			require.Error(t, err)
			assert.Equal(t, itemize.EUNIMPLEMENTED, itemize.ErrorCode(err))
		})
	}
}

func TestNewExtractor_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := metadata.NewExtractor(itemize.Format("turtle"), nil, testPageURL)
	require.Error(t, err)
	assert.Equal(t, itemize.EINVALID, itemize.ErrorCode(err))
}

func TestOpenGraphExtractor(t *testing.T) {
	t.Parallel()

	t.Run("looks up og keys", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatOpenGraph, []itemize.Properties{{
			"og:title":               "Widget",
			"og:site_name":           "Widget Shop",
			"og:description":         "A fine widget",
			"og:image":               "https://example.com/widget.jpg",
			"product:price:amount":   "19.99",
			"product:price:currency": "USD",
		}}, testPageURL)
		require.NoError(t, err)

		for field, want := range map[itemize.Field]string{
			itemize.FieldTitle:       "Widget",
			itemize.FieldSiteName:    "Widget Shop",
			itemize.FieldDescription: "A fine widget",
			itemize.FieldImageURL:    "https://example.com/widget.jpg",
			itemize.FieldPrice:       "19.99",
			itemize.FieldCurrency:    "USD",
		} {
			v, ok := ex.Lookup(field)
			assert.True(t, ok, "field %s", field)
			assert.Equal(t, want, v, "field %s", field)
		}
	})

	t.Run("missing key reports absent", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatOpenGraph, []itemize.Properties{{
			"og:title": "Widget",
		}}, testPageURL)
		require.NoError(t, err)

		_, ok := ex.Lookup(itemize.FieldDescription)
		assert.False(t, ok)
	})

	t.Run("merges split bags with last bag winning", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatOpenGraph, []itemize.Properties{
			{"og:title": "First"},
			{"og:title": "Second", "og:site_name": "Shop"},
		}, testPageURL)
		require.NoError(t, err)

		v, ok := ex.Lookup(itemize.FieldTitle)
		assert.True(t, ok)
		assert.Equal(t, "Second", v)

		v, ok = ex.Lookup(itemize.FieldSiteName)
		assert.True(t, ok)
		assert.Equal(t, "Shop", v)
	})

	t.Run("numeric value converts to string", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatOpenGraph, []itemize.Properties{{
			"product:price:amount": 19.99,
		}}, testPageURL)
		require.NoError(t, err)

		v, ok := ex.Lookup(itemize.FieldPrice)
		assert.True(t, ok)
		assert.Equal(t, "19.99", v)
	})

	t.Run("non-scalar value reports absent", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatOpenGraph, []itemize.Properties{{
			"og:title": []any{"a", "b"},
		}}, testPageURL)
		require.NoError(t, err)

		_, ok := ex.Lookup(itemize.FieldTitle)
		assert.False(t, ok)
	})
}

func TestRDFaExtractor(t *testing.T) {
	t.Parallel()

	pageBag := itemize.Properties{
		"@id": testPageURL,
		"http://ogp.me/ns#title": []any{
			itemize.Properties{"@value": "RDFa Widget"},
		},
	}

	t.Run("reads value container from the page's bag", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatRDFa, []itemize.Properties{pageBag}, testPageURL)
		require.NoError(t, err)

		v, ok := ex.Lookup(itemize.FieldTitle)
		assert.True(t, ok)
		assert.Equal(t, "RDFa Widget", v)
	})

	t.Run("ignores bags for other subjects", func(t *testing.T) {
		t.Parallel()

		other := itemize.Properties{
			"@id": "https://example.com/other",
			"http://ogp.me/ns#title": []any{
				itemize.Properties{"@value": "Other Page"},
			},
		}
		ex, err := metadata.NewExtractor(itemize.FormatRDFa, []itemize.Properties{other}, testPageURL)
		require.NoError(t, err)

		_, ok := ex.Lookup(itemize.FieldTitle)
		assert.False(t, ok)
	})

	t.Run("key without value container reports absent", func(t *testing.T) {
		t.Parallel()

		bag := itemize.Properties{
			"@id":                    testPageURL,
			"http://ogp.me/ns#title": "bare string",
		}
		ex, err := metadata.NewExtractor(itemize.FormatRDFa, []itemize.Properties{bag}, testPageURL)
		require.NoError(t, err)

		_, ok := ex.Lookup(itemize.FieldTitle)
		assert.False(t, ok)
	})

	t.Run("last container wins for repeated properties", func(t *testing.T) {
		t.Parallel()

		bag := itemize.Properties{
			"@id": testPageURL,
			"http://ogp.me/ns#title": []any{
				itemize.Properties{"@value": "First"},
				itemize.Properties{"@value": "Last"},
			},
		}
		ex, err := metadata.NewExtractor(itemize.FormatRDFa, []itemize.Properties{bag}, testPageURL)
		require.NoError(t, err)

		v, ok := ex.Lookup(itemize.FieldTitle)
		assert.True(t, ok)
		assert.Equal(t, "Last", v)
	})
}

func TestJSONLDExtractor(t *testing.T) {
	t.Parallel()

	t.Run("reads product fields with key translation", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatJSONLD, []itemize.Properties{{
			"@type":       "Product",
			"name":        "JSON-LD Widget",
			"image":       "https://example.com/w.jpg",
			"description": "Structured widget",
			"price":       "9.99",
		}}, testPageURL)
		require.NoError(t, err)

		v, ok := ex.Lookup(itemize.FieldTitle)
		assert.True(t, ok)
		assert.Equal(t, "JSON-LD Widget", v)

		v, ok = ex.Lookup(itemize.FieldImageURL)
		assert.True(t, ok)
		assert.Equal(t, "https://example.com/w.jpg", v)

		v, ok = ex.Lookup(itemize.FieldDescription)
		assert.True(t, ok)
		assert.Equal(t, "Structured widget", v)
	})

	t.Run("site_name comes only from Organization bags", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatJSONLD, []itemize.Properties{
			{"@type": "Product", "site_name": "Wrong Bag"},
			{"@type": "Organization", "site_name": "Widget Inc"},
		}, testPageURL)
		require.NoError(t, err)

		v, ok := ex.Lookup(itemize.FieldSiteName)
		assert.True(t, ok)
		assert.Equal(t, "Widget Inc", v)
	})

	t.Run("bag with wrong type is ignored", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatJSONLD, []itemize.Properties{{
			"@type": "Article",
			"name":  "An Article",
		}}, testPageURL)
		require.NoError(t, err)

		_, ok := ex.Lookup(itemize.FieldTitle)
		assert.False(t, ok)
	})

	t.Run("matches type declared as a sequence", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatJSONLD, []itemize.Properties{{
			"@type": []any{"Thing", "Product"},
			"name":  "Multi-typed Widget",
		}}, testPageURL)
		require.NoError(t, err)

		v, ok := ex.Lookup(itemize.FieldTitle)
		assert.True(t, ok)
		assert.Equal(t, "Multi-typed Widget", v)
	})
}

func TestDublinCoreExtractor(t *testing.T) {
	t.Parallel()

	bags := []itemize.Properties{{
		"elements": []any{
			itemize.Properties{"name": "title", "content": "DC Title"},
			itemize.Properties{"name": "description", "content": "DC Description"},
		},
	}}

	t.Run("reads elements by canonical name", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatDublinCore, bags, testPageURL)
		require.NoError(t, err)

		v, ok := ex.Lookup(itemize.FieldTitle)
		assert.True(t, ok)
		assert.Equal(t, "DC Title", v)

		v, ok = ex.Lookup(itemize.FieldDescription)
		assert.True(t, ok)
		assert.Equal(t, "DC Description", v)
	})

	t.Run("missing element reports absent", func(t *testing.T) {
		t.Parallel()

		ex, err := metadata.NewExtractor(itemize.FormatDublinCore, bags, testPageURL)
		require.NoError(t, err)

		_, ok := ex.Lookup(itemize.FieldPrice)
		assert.False(t, ok)
	})
}
