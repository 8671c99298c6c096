package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping maps names with English stemming and keeps identifiers
// as exact keywords for filtering.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	doc := bleve.NewDocumentMapping()

	text := func(store bool) *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = en.AnalyzerName
		f.Store = store
		return f
	}
	kw := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Store = true
		return f
	}
	num := func() *mapping.FieldMapping {
		f := bleve.NewNumericFieldMapping()
		f.Store = true
		return f
	}

	doc.AddFieldMappingsAt("name", text(true))
	doc.AddFieldMappingsAt("tags", text(false))
	doc.AddFieldMappingsAt("ingredients", text(false))

	doc.AddFieldMappingsAt("id", kw())
	doc.AddFieldMappingsAt("type", kw())
	doc.AddFieldMappingsAt("owner_id", kw())

	doc.AddFieldMappingsAt("time_minutes", num())
	doc.AddFieldMappingsAt("price", num())

	indexMapping.AddDocumentMapping("_default", doc)
	return indexMapping
}
