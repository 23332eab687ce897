package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for record documents.
//
// Priorities:
//  1. Full-text search on the flattened field text, simple analyzer (no
//     stemming; base names and status values are codes, not prose)
//  2. Exact keyword matching on raw base name and group key
//  3. Term vectors on text for highlighting
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	docMapping := bleve.NewDocumentMapping()

	// Flattened record text - primary search target.
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = simple.Name
	textFieldMapping.Store = true
	textFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	// Raw base name - exact keyword match, stored for hits.
	rawFieldMapping := bleve.NewTextFieldMapping()
	rawFieldMapping.Analyzer = keyword.Name
	rawFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("raw_base", rawFieldMapping)

	// Group key - exact keyword match, stored for hits.
	keyFieldMapping := bleve.NewTextFieldMapping()
	keyFieldMapping.Analyzer = keyword.Name
	keyFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("key", keyFieldMapping)

	// Row position - stored so hits can point back into the dataset.
	rowFieldMapping := bleve.NewNumericFieldMapping()
	rowFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("row", rowFieldMapping)

	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
