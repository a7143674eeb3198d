package model

import "testing"

func TestColumnType_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		columnType ColumnType
		expected   string
	}{
		{ColumnTypeText, "TEXT"},
		{ColumnTypeDatetime, "DATETIME"},
		{ColumnTypeBoolean, "BOOLEAN"},
		{ColumnTypeInteger, "INTEGER"},
		{ColumnTypeFloat, "FLOAT"},
		{ColumnType(99), "TEXT"},
	}

	for _, tt := range tests {
		if got := tt.columnType.String(); got != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, got)
		}
	}
}

func TestColumnType_StorageType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		columnType ColumnType
		expected   StorageType
	}{
		{ColumnTypeText, StorageTypeText},
		{ColumnTypeDatetime, StorageTypeText},
		{ColumnTypeBoolean, StorageTypeInteger},
		{ColumnTypeInteger, StorageTypeInteger},
		{ColumnTypeFloat, StorageTypeReal},
	}

	for _, tt := range tests {
		if got := tt.columnType.StorageType(); got != tt.expected {
			t.Errorf("%s: expected storage %s, got %s", tt.columnType, tt.expected, got)
		}
	}
}

func TestParseColumnType(t *testing.T) {
	t.Parallel()

	for _, ct := range []ColumnType{ColumnTypeText, ColumnTypeDatetime, ColumnTypeBoolean, ColumnTypeInteger, ColumnTypeFloat} {
		got, ok := ParseColumnType(ct.String())
		if !ok {
			t.Errorf("%s: expected parse to succeed", ct)
		}
		if got != ct {
			t.Errorf("expected %s, got %s", ct, got)
		}
	}

	if _, ok := ParseColumnType("VARCHAR"); ok {
		t.Error("expected parse of unknown type name to fail")
	}
}

func TestStorageType_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		storageType StorageType
		expected    string
	}{
		{StorageTypeText, "TEXT"},
		{StorageTypeInteger, "INTEGER"},
		{StorageTypeReal, "REAL"},
	}

	for _, tt := range tests {
		if got := tt.storageType.String(); got != tt.expected {
			t.Errorf("expected %s, got %s", tt.expected, got)
		}
	}
}
