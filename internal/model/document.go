package model

import "time"

// MaxPages is the hard cap on the page window. Documents beyond this are
// truncated and the truncation is surfaced in the final report.
const MaxPages = 20

// Document is the immutable ingestion result for one PDF. It is created once
// by the loader and shared read-only across every pipeline stage.
type Document struct {
	SourcePath string `json:"source_path"`
	PageCount  int    `json:"page_count"` // pages in the file, before windowing
	Truncated  bool   `json:"truncated"`  // true when PageCount > MaxPages
	Language   string `json:"language"`   // "en" or "unknown"

	Pages     []Page         `json:"-"` // first min(MaxPages, PageCount) pages
	Structure StructureStats `json:"structure"`
}

// Page is one rasterizable page of a document. Immutable once produced.
type Page struct {
	Index int    `json:"index"` // 0-based, document order
	Text  string `json:"-"`     // raw extracted text, may be empty
	Image []byte `json:"-"`     // rasterized PNG, nil until rasterization
}

// StructureStats captures the raw PDF object-graph facts consumed by the
// structural detector. All counts come from the parser, not from rendering.
type StructureStats struct {
	Version          string    `json:"version"`
	Encrypted        bool      `json:"encrypted"`
	ObjectCount      int       `json:"object_count"`
	XRefSections     int       `json:"xref_sections"` // >1 means incremental updates
	FontCount        int       `json:"font_count"`
	XObjectCount     int       `json:"xobject_count"`
	AnnotationCount  int       `json:"annotation_count"`
	HasJavaScript    bool      `json:"has_javascript"`
	HasEmbeddedFiles bool      `json:"has_embedded_files"`
	Info             DocInfo   `json:"info"`
	Created          time.Time `json:"created,omitempty"`
	Modified         time.Time `json:"modified,omitempty"`
}

// DocInfo is the PDF Info dictionary, with standard fields always present.
type DocInfo struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	Creator      string `json:"creator"`
	Producer     string `json:"producer"`
	CreationDate string `json:"creation_date"`
	ModDate      string `json:"mod_date"`
	Found        bool   `json:"found"`
}

// ModifiedAfterCreation reports whether the document carries a modification
// timestamp that differs from its creation timestamp.
func (s StructureStats) ModifiedAfterCreation() bool {
	return s.Info.ModDate != "" && s.Info.CreationDate != "" &&
		s.Info.ModDate != s.Info.CreationDate
}
