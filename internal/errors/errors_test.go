package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "state error",
			code:    "S001",
			wantMsg: "State disposed while computing",
			wantCat: CategoryState,
		},
		{
			name:    "config error",
			code:    "C001",
			wantMsg: "Invalid configuration file",
			wantCat: CategoryConfig,
		},
		{
			name:    "export error",
			code:    "X002",
			wantMsg: "Unsupported export target",
			wantCat: CategoryExport,
		},
		{
			name:    "unknown error code",
			code:    "S999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New("S005")
	err := fmt.Errorf("while updating: %w", New("S005").WithReason("state %q", "count"))

	if !stderrors.Is(err, sentinel) {
		t.Fatal("errors.Is should match errors with the same code")
	}
	if stderrors.Is(err, New("S001")) {
		t.Fatal("errors.Is should not match a different code")
	}
	if stderrors.Is(err, Newf(CategoryState, "no code")) {
		t.Fatal("errors without code never match")
	}
}

func TestErrorString(t *testing.T) {
	err := New("S007").WithReason("%q", "missing")
	want := `S007: Named state not found: "missing"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := New("X001").Wrap(stderrors.New("disk full"))
	if !strings.HasSuffix(wrapped.Error(), ": disk full") {
		t.Errorf("Error() should end with the wrapped error, got %q", wrapped.Error())
	}
	if !stderrors.Is(wrapped, wrapped.Wrapped) {
		t.Error("Unwrap should expose the wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "X001") != nil {
		t.Error("FromError(nil) should be nil")
	}

	base := New("S002")
	if got := FromError(fmt.Errorf("ctx: %w", base), "X001"); got != base {
		t.Error("FromError should return the *Error already in the chain")
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "X001")
	if got.Code != "X001" || got.Wrapped != plain {
		t.Errorf("FromError wrapped = %+v", got)
	}
	if CodeOf(got) != "X001" {
		t.Errorf("CodeOf = %q", CodeOf(got))
	}
	if CodeOf(plain) != "" {
		t.Error("CodeOf plain error should be empty")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("S005").WithReason("state %q", "count")
	out := err.Format()

	for _, want := range []string{
		"ERROR S005 [state]: State modified while computing",
		`state "count"`,
		"Hint: Schedule the write",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("C002").WithReason("port 0").Wrap(stderrors.New("out of range"))

	var got map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &got); jerr != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", jerr)
	}
	if got["code"] != "C002" || got["reason"] != "port 0" || got["cause"] != "out of range" {
		t.Errorf("FormatJSON = %v", got)
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, stderrors.New("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("PrintError plain = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, New("S006"))
	if !strings.Contains(buf.String(), "S006") {
		t.Errorf("PrintError coded = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, line := range lines {
		if len(line) > 10 {
			t.Errorf("line %q longer than width", line)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if _, ok := GetTemplate("S001"); !ok {
		t.Error("S001 should be registered")
	}
}

func TestFormatSections(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("X001").WithReason("write s3://b/k").Wrap(stderrors.New("denied")).WithSuggestion("check credentials")
	out := err.Format()
	for _, want := range []string{
		"ERROR X001 [export]: Journal export failed",
		"  write s3://b/k\n",
		"  Caused by: denied\n",
		"  Hint: check credentials\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() emitted colors while disabled")
	}
}
