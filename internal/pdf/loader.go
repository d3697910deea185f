// Package pdf loads a PDF into the immutable document bundle consumed by the
// pipeline: the bounded page window with per-page text, plus the raw
// object-graph statistics the structural detector works from.
package pdf

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/reader"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

// maxObjectScan bounds the object-graph walk on pathological files.
const maxObjectScan = 5000

// Loader reads PDF files into model.Document values.
type Loader struct {
	maxPages int
}

// NewLoader creates a loader with the given page window. Values above
// model.MaxPages are clamped.
func NewLoader(maxPages int) *Loader {
	if maxPages <= 0 || maxPages > model.MaxPages {
		maxPages = model.MaxPages
	}
	return &Loader{maxPages: maxPages}
}

// Load opens the file and produces the document bundle. Pages beyond the
// window are dropped and the truncation is recorded, never silent.
func (l *Loader) Load(path string) (*model.Document, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer r.Close()

	pageCount, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	doc := &model.Document{
		SourcePath: path,
		PageCount:  pageCount,
		Truncated:  pageCount > l.maxPages,
		Structure:  l.structure(r, path),
	}

	window := pageCount
	if window > l.maxPages {
		window = l.maxPages
	}

	for i := 0; i < window; i++ {
		text, _, err := tabula.FromReader(r).Pages(i + 1).Text()
		if err != nil {
			// A page with no extractable text layer is normal for
			// scanned statements; perception covers it.
			text = ""
		}
		doc.Pages = append(doc.Pages, model.Page{Index: i, Text: text})
	}

	doc.Language = detectLanguage(doc.Pages)
	return doc, nil
}

// structure collects the object-graph facts. Failures here degrade to
// partial stats rather than failing the load: the structural detector
// treats missing data as unknown.
func (l *Loader) structure(r *reader.Reader, path string) model.StructureStats {
	stats := model.StructureStats{
		Version:     r.Version().String(),
		ObjectCount: r.NumObjects(),
	}

	if info, err := r.GetInfo(); err == nil && info != nil {
		stats.Info = docInfo(info)
		stats.Created = parsePDFDate(stats.Info.CreationDate)
		stats.Modified = parsePDFDate(stats.Info.ModDate)
	}

	if catalog, err := r.GetCatalog(); err == nil {
		stats.HasJavaScript = catalog.Has("JavaScript") || catalog.Has("JS")
		if names, ok := catalog.GetDict("Names"); ok {
			stats.HasEmbeddedFiles = names.Has("EmbeddedFiles")
			if !stats.HasJavaScript {
				stats.HasJavaScript = names.Has("JavaScript")
			}
		}
	}

	stats.Encrypted = r.Trailer().Has("Encrypt")
	stats.XRefSections = countXRefSections(path)

	l.countResources(r, &stats)
	return stats
}

// countResources tallies fonts and XObjects over the windowed pages and
// annotation objects over the object graph.
func (l *Loader) countResources(r *reader.Reader, stats *model.StructureStats) {
	pageCount, err := r.PageCount()
	if err != nil {
		return
	}
	window := pageCount
	if window > l.maxPages {
		window = l.maxPages
	}

	for i := 0; i < window; i++ {
		page, err := r.GetPage(i)
		if err != nil {
			continue
		}
		res, err := page.Resources()
		if err != nil || res == nil {
			continue
		}
		if fonts, ok := res.GetDict("Font"); ok {
			stats.FontCount += len(fonts.Keys())
		}
		if xobjs, ok := res.GetDict("XObject"); ok {
			stats.XObjectCount += len(xobjs.Keys())
		}
	}

	scan := r.NumObjects()
	if scan > maxObjectScan {
		scan = maxObjectScan
	}
	for n := 1; n <= scan; n++ {
		obj, err := r.GetObject(n)
		if err != nil {
			continue
		}
		if d, ok := obj.(core.Dict); ok {
			if t, ok := d.GetName("Type"); ok && string(t) == "Annot" {
				stats.AnnotationCount++
			}
		}
	}
}

// countXRefSections parses every xref section in the file. More than one
// section means incremental updates: the file was written to after its
// initial authoring pass.
func countXRefSections(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	parser := core.NewXRefParser(f)
	tables, err := parser.ParseAllXRefs()
	if err != nil {
		return 0
	}
	return len(tables)
}

func docInfo(info core.Dict) model.DocInfo {
	get := func(key string) string {
		if s, ok := info.GetString(key); ok {
			return string(s)
		}
		return ""
	}
	return model.DocInfo{
		Title:        get("Title"),
		Author:       get("Author"),
		Creator:      get("Creator"),
		Producer:     get("Producer"),
		CreationDate: get("CreationDate"),
		ModDate:      get("ModDate"),
		Found:        len(info.Keys()) > 0,
	}
}

// parsePDFDate parses the D:YYYYMMDDHHmmSS prefix of a PDF date string.
func parsePDFDate(raw string) time.Time {
	s := strings.TrimPrefix(raw, "D:")
	if len(s) > 14 {
		s = s[:14]
	}
	for _, layout := range []string{"20060102150405", "200601021504", "20060102"} {
		if len(s) == len(layout) {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// statement vocabulary used both for language detection and, in the
// classifier, as the textual channel of the combination rule.
var statementKeywords = []string{
	"opening balance",
	"closing balance",
	"account number",
	"sort code",
	"statement period",
	"balance brought forward",
	"balance carried forward",
	"transaction",
	"withdrawal",
	"deposit",
}

func detectLanguage(pages []model.Page) string {
	for _, p := range pages {
		lower := strings.ToLower(p.Text)
		for _, kw := range statementKeywords {
			if strings.Contains(lower, kw) {
				return "en"
			}
		}
	}
	return "unknown"
}

// KeywordHits counts distinct statement-vocabulary phrases across the page
// window.
func KeywordHits(pages []model.Page) int {
	hits := 0
	var all strings.Builder
	for _, p := range pages {
		all.WriteString(strings.ToLower(p.Text))
		all.WriteString("\n")
	}
	text := all.String()
	for _, kw := range statementKeywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}
