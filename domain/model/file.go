// Package model provides the domain model for sheetsql.
package model

import (
	"path/filepath"
	"strings"
)

// Supported file extensions
const (
	// ExtCSV is the extension for CSV files.
	ExtCSV = ".csv"
	// ExtTSV is the extension for TSV files.
	ExtTSV = ".tsv"
	// ExtXLSX is the extension for Excel workbook files.
	ExtXLSX = ".xlsx"
	// ExtGZ is the extension for gzip compressed files.
	ExtGZ = ".gz"
	// ExtBZ2 is the extension for bzip2 compressed files.
	ExtBZ2 = ".bz2"
	// ExtXZ is the extension for xz compressed files.
	ExtXZ = ".xz"
	// ExtZSTD is the extension for zstd compressed files.
	ExtZSTD = ".zst"
)

// FileType represents the format of an input file.
type FileType int

const (
	// FileTypeCSV is a comma separated values file.
	FileTypeCSV FileType = iota
	// FileTypeTSV is a tab separated values file.
	FileTypeTSV
	// FileTypeXLSX is an Excel workbook.
	FileTypeXLSX
	// FileTypeUnsupported is a file format the pipeline cannot parse.
	FileTypeUnsupported
)

// String returns the short format name.
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeTSV:
		return "tsv"
	case FileTypeXLSX:
		return "xlsx"
	default:
		return "unsupported"
	}
}

// Extension returns the primary extension for the format.
func (ft FileType) Extension() string {
	switch ft {
	case FileTypeCSV:
		return ExtCSV
	case FileTypeTSV:
		return ExtTSV
	case FileTypeXLSX:
		return ExtXLSX
	default:
		return ""
	}
}

// CompressionType represents the compression applied to an input file.
type CompressionType int

const (
	// CompressionNone means the file is not compressed.
	CompressionNone CompressionType = iota
	// CompressionGZ is gzip compression.
	CompressionGZ
	// CompressionBZ2 is bzip2 compression.
	CompressionBZ2
	// CompressionXZ is xz compression.
	CompressionXZ
	// CompressionZSTD is zstd compression.
	CompressionZSTD
)

// Extension returns the extension for the compression type.
func (ct CompressionType) Extension() string {
	switch ct {
	case CompressionGZ:
		return ExtGZ
	case CompressionBZ2:
		return ExtBZ2
	case CompressionXZ:
		return ExtXZ
	case CompressionZSTD:
		return ExtZSTD
	default:
		return ""
	}
}

// DetectCompression detects the compression type from the file
// extension.
func DetectCompression(path string) CompressionType {
	switch {
	case strings.HasSuffix(path, ExtGZ):
		return CompressionGZ
	case strings.HasSuffix(path, ExtBZ2):
		return CompressionBZ2
	case strings.HasSuffix(path, ExtXZ):
		return CompressionXZ
	case strings.HasSuffix(path, ExtZSTD):
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

// DetectFileType detects the file format from the extension,
// considering compressed files.
func DetectFileType(path string) FileType {
	if ct := DetectCompression(path); ct != CompressionNone {
		path = strings.TrimSuffix(path, ct.Extension())
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtCSV:
		return FileTypeCSV
	case ExtTSV:
		return FileTypeTSV
	case ExtXLSX:
		return FileTypeXLSX
	default:
		return FileTypeUnsupported
	}
}

// StripExtensions returns the base name of path with any compression
// extension and any supported format extension removed.
func StripExtensions(path string) string {
	base := filepath.Base(path)
	if ct := DetectCompression(base); ct != CompressionNone {
		base = strings.TrimSuffix(base, ct.Extension())
	}
	ext := strings.ToLower(filepath.Ext(base))
	switch ext {
	case ExtCSV, ExtTSV, ExtXLSX:
		base = base[:len(base)-len(ext)]
	}
	return base
}

// File represents an input file path with its detected format and
// compression.
type File struct {
	path        string
	fileType    FileType
	compression CompressionType
}

// NewFile creates a File from a path, detecting the format and
// compression from the extension chain.
func NewFile(path string) *File {
	return &File{
		path:        path,
		fileType:    DetectFileType(path),
		compression: DetectCompression(path),
	}
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Type returns the detected file format.
func (f *File) Type() FileType {
	return f.fileType
}

// Compression returns the detected compression type.
func (f *File) Compression() CompressionType {
	return f.compression
}

// IsSupported reports whether the file format is recognized.
func (f *File) IsSupported() bool {
	return f.fileType != FileTypeUnsupported
}

// IsCSV reports whether the file is a CSV file.
func (f *File) IsCSV() bool {
	return f.fileType == FileTypeCSV
}

// IsTSV reports whether the file is a TSV file.
func (f *File) IsTSV() bool {
	return f.fileType == FileTypeTSV
}

// IsXLSX reports whether the file is an Excel workbook.
func (f *File) IsXLSX() bool {
	return f.fileType == FileTypeXLSX
}

// IsCompressed reports whether the file has a compression extension.
func (f *File) IsCompressed() bool {
	return f.compression != CompressionNone
}
