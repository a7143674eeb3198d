package model

import "testing"

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		expected FileType
	}{
		{"csv", "data.csv", FileTypeCSV},
		{"tsv", "data.tsv", FileTypeTSV},
		{"xlsx", "book.xlsx", FileTypeXLSX},
		{"uppercase extension", "DATA.CSV", FileTypeCSV},
		{"gzip compressed csv", "data.csv.gz", FileTypeCSV},
		{"bzip2 compressed tsv", "data.tsv.bz2", FileTypeTSV},
		{"xz compressed csv", "data.csv.xz", FileTypeCSV},
		{"zstd compressed xlsx", "book.xlsx.zst", FileTypeXLSX},
		{"legacy xls", "book.xls", FileTypeUnsupported},
		{"plain text", "notes.txt", FileTypeUnsupported},
		{"no extension", "data", FileTypeUnsupported},
		{"compression only", "data.gz", FileTypeUnsupported},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DetectFileType(tt.path); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDetectCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected CompressionType
	}{
		{"data.csv", CompressionNone},
		{"data.csv.gz", CompressionGZ},
		{"data.csv.bz2", CompressionBZ2},
		{"data.csv.xz", CompressionXZ},
		{"data.csv.zst", CompressionZSTD},
	}

	for _, tt := range tests {
		if got := DetectCompression(tt.path); got != tt.expected {
			t.Errorf("%s: expected compression %v, got %v", tt.path, tt.expected, got)
		}
	}
}

func TestStripExtensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected string
	}{
		{"orders.csv", "orders"},
		{"orders.csv.gz", "orders"},
		{"/data/uploads/book.xlsx", "book"},
		{"data.backup.csv", "data.backup"},
		{"notes.txt", "notes.txt"},
		{"archive.zst", "archive"},
	}

	for _, tt := range tests {
		if got := StripExtensions(tt.path); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.path, tt.expected, got)
		}
	}
}

func TestFile(t *testing.T) {
	t.Parallel()

	f := NewFile("data.csv.gz")
	if f.Path() != "data.csv.gz" {
		t.Errorf("expected path data.csv.gz, got %s", f.Path())
	}
	if !f.IsCSV() || f.IsTSV() || f.IsXLSX() {
		t.Error("expected file to be detected as CSV")
	}
	if !f.IsCompressed() || f.Compression() != CompressionGZ {
		t.Error("expected gzip compression to be detected")
	}
	if !f.IsSupported() {
		t.Error("expected compressed CSV to be supported")
	}

	if NewFile("book.xls").IsSupported() {
		t.Error("expected legacy xls to be unsupported")
	}
}

func TestFileType_Extension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fileType FileType
		expected string
	}{
		{FileTypeCSV, ".csv"},
		{FileTypeTSV, ".tsv"},
		{FileTypeXLSX, ".xlsx"},
		{FileTypeUnsupported, ""},
	}

	for _, tt := range tests {
		if got := tt.fileType.Extension(); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.fileType, tt.expected, got)
		}
	}
}
