package pdf

import (
	"testing"
	"time"

	"github.com/Fayo2019/Bank-Statement-KYB-agent/internal/model"
)

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"D:20240201080000Z", time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)},
		{"D:20240201080000+01'00'", time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)},
		{"D:20240201", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"20240201080000", time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)},
		{"garbage", time.Time{}},
		{"", time.Time{}},
	}
	for _, tt := range tests {
		if got := parsePDFDate(tt.raw); !got.Equal(tt.want) {
			t.Errorf("parsePDFDate(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestKeywordHits(t *testing.T) {
	pages := []model.Page{
		{Text: "Statement period 01 Jan - 31 Jan\nOpening Balance 1,000.00"},
		{Text: "Closing Balance 1,300.00\nAccount Number ****1234"},
	}
	// Distinct phrases count once, across the whole window.
	if hits := KeywordHits(pages); hits != 4 {
		t.Errorf("Expected 4 distinct vocabulary hits, got %d", hits)
	}

	if hits := KeywordHits([]model.Page{{Text: "Dear customer, your parcel has shipped"}}); hits != 0 {
		t.Errorf("Expected 0 hits for unrelated text, got %d", hits)
	}

	// A scan with no text layer yields zero, not an error.
	if hits := KeywordHits([]model.Page{{Text: ""}}); hits != 0 {
		t.Errorf("Expected 0 hits for empty text, got %d", hits)
	}
}

func TestDetectLanguage(t *testing.T) {
	en := []model.Page{{Text: "opening balance 5,000.00"}}
	if lang := detectLanguage(en); lang != "en" {
		t.Errorf("Expected en, got %s", lang)
	}
	if lang := detectLanguage([]model.Page{{Text: "Kontoauszug Saldo"}}); lang != "unknown" {
		t.Errorf("Expected unknown, got %s", lang)
	}
}
