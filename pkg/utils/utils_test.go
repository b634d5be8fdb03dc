package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

// --- CategorizeError Tests ---

func TestCategorizeError_NilError(t *testing.T) {
	result := CategorizeError(nil)
	if result != "None" {
		t.Errorf("CategorizeError(nil) = %q, want %q", result, "None")
	}
}

func TestCategorizeError_SentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"FrontMatter", ErrFrontMatter, "Content_FrontMatter"},
		{"Parsing", ErrParsing, "Content_ParsingOther"},
		{"Duplicate", ErrDuplicateDocument, "Content_Duplicate"},
		{"Filesystem", ErrFilesystem, "Filesystem_Other"},
		{"Database", ErrDatabase, "Database_Other"},
		{"ConfigValidation", ErrConfigValidation, "Config_Validation"},
		{"InvalidArgument", ErrInvalidArgument, "Request_InvalidArgument"},
		{"NotFound", ErrNotFound, "Request_NotFound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_WrappedErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"WrappedFrontMatter", fmt.Errorf("risk/intro: %w", ErrFrontMatter), "Content_FrontMatter"},
		{"ParsingYAML", fmt.Errorf("%w: invalid YAML in block", ErrParsing), "Content_ParsingYAML"},
		{"ParsingJSON", fmt.Errorf("%w: bad JSON record", ErrParsing), "Content_ParsingJSON"},
		{"ParsingEncoding", fmt.Errorf("%w: body is not valid UTF-8", ErrParsing), "Content_Encoding"},
		{"FilesystemNotExist", fmt.Errorf("%w: %w", ErrFilesystem, os.ErrNotExist), "Filesystem_NotExist"},
		{"FilesystemPermission", fmt.Errorf("%w: %w", ErrFilesystem, os.ErrPermission), "Filesystem_Permission"},
		{"FilesystemExist", fmt.Errorf("%w: %w", ErrFilesystem, os.ErrExist), "Filesystem_Exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CategorizeError(tt.err)
			if result != tt.expected {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestCategorizeError_ContextErrors(t *testing.T) {
	if got := CategorizeError(context.Canceled); got != "System_ContextCanceled" {
		t.Errorf("CategorizeError(Canceled) = %q", got)
	}
	if got := CategorizeError(fmt.Errorf("load: %w", context.DeadlineExceeded)); got != "System_ContextDeadlineExceeded" {
		t.Errorf("CategorizeError(DeadlineExceeded) = %q", got)
	}
}

func TestCategorizeError_BareOSErrors(t *testing.T) {
	if got := CategorizeError(fmt.Errorf("open: %w", os.ErrNotExist)); got != "Filesystem_NotExist" {
		t.Errorf("CategorizeError(ErrNotExist) = %q", got)
	}
}

func TestCategorizeError_Unknown(t *testing.T) {
	result := CategorizeError(errors.New("something odd"))
	if result != "Unknown" {
		t.Errorf("CategorizeError(unknown) = %q, want %q", result, "Unknown")
	}
}

// --- SanitizeFilename Tests ---

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"trading-course", "trading-course"},
		{"my:store/name", "my_store_name"},
		{"a<>b", "a_b"},
		{"__leading", "leading"},
		{"  spaced  ", "spaced"},
		{"", "course"},
		{"///", "course"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFilename(tt.input); got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFilename_LongNames(t *testing.T) {
	long := ""
	for i := 0; i < 150; i++ {
		long += "a"
	}
	if got := SanitizeFilename(long); len(got) != maxFilenameLength {
		t.Errorf("SanitizeFilename(long) length = %d, want %d", len(got), maxFilenameLength)
	}
}

// --- CompileRegexPatterns Tests ---

func TestCompileRegexPatterns_ValidPatterns(t *testing.T) {
	compiled, err := CompileRegexPatterns([]string{`^drafts/`, `\.bak$`})
	if err != nil {
		t.Fatalf("CompileRegexPatterns() unexpected error: %v", err)
	}
	if len(compiled) != 2 {
		t.Errorf("CompileRegexPatterns() returned %d patterns, want 2", len(compiled))
	}
}

func TestCompileRegexPatterns_EmptyStringsSkipped(t *testing.T) {
	compiled, err := CompileRegexPatterns([]string{"valid", "", "also_valid", ""})
	if err != nil {
		t.Fatalf("CompileRegexPatterns() unexpected error: %v", err)
	}
	if len(compiled) != 2 {
		t.Errorf("CompileRegexPatterns() returned %d patterns, want 2", len(compiled))
	}
}

func TestCompileRegexPatterns_InvalidPattern(t *testing.T) {
	_, err := CompileRegexPatterns([]string{`valid`, `[invalid`})
	if err == nil {
		t.Fatal("CompileRegexPatterns() expected error for invalid pattern, got nil")
	}
	if !errors.Is(err, ErrConfigValidation) {
		t.Errorf("CompileRegexPatterns() error = %v, want wrapped ErrConfigValidation", err)
	}
}

func TestMatchesAny(t *testing.T) {
	compiled, err := CompileRegexPatterns([]string{`^drafts/`, `\.wip\.mdx$`})
	if err != nil {
		t.Fatalf("CompileRegexPatterns() unexpected error: %v", err)
	}

	if !MatchesAny(compiled, "drafts/intro.mdx") {
		t.Error("expected drafts/ path to match")
	}
	if !MatchesAny(compiled, "risk/sizing.wip.mdx") {
		t.Error("expected .wip.mdx path to match")
	}
	if MatchesAny(compiled, "risk/sizing.mdx") {
		t.Error("did not expect risk/sizing.mdx to match")
	}
	if MatchesAny(nil, "anything") {
		t.Error("nil pattern list should never match")
	}
}

// --- Hash Tests ---

func TestCalculateStringSHA256(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"EmptyString", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"HelloWorld", "hello world", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{"SimpleText", "test", "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateStringSHA256(tt.input); got != tt.expected {
				t.Errorf("CalculateStringSHA256(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCalculateFingerprint(t *testing.T) {
	a := CalculateFingerprint("ab", "c")
	b := CalculateFingerprint("a", "bc")
	if a == b {
		t.Error("fingerprints of differently split parts should differ")
	}
	if CalculateFingerprint("x", "y") != CalculateFingerprint("x", "y") {
		t.Error("fingerprint should be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64", len(a))
	}
}

// --- WrapErrorf Tests ---

func TestWrapErrorf_NilError(t *testing.T) {
	if result := WrapErrorf(nil, "some context"); result != nil {
		t.Errorf("WrapErrorf(nil, ...) = %v, want nil", result)
	}
}

func TestWrapErrorf_WrapsError(t *testing.T) {
	original := errors.New("original error")
	wrapped := WrapErrorf(original, "context %s", "value")

	if wrapped == nil {
		t.Fatal("WrapErrorf() returned nil, want error")
	}
	if !errors.Is(wrapped, original) {
		t.Error("WrapErrorf() result should wrap original error")
	}
	expectedMsg := "context value: original error"
	if wrapped.Error() != expectedMsg {
		t.Errorf("WrapErrorf() message = %q, want %q", wrapped.Error(), expectedMsg)
	}
}
