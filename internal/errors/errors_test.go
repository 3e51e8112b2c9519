package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vango-dev/derivable/pkg/reactive"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "runtime error",
			code:    "R001",
			wantMsg: "Dependency cycle detected",
			wantCat: CategoryRuntime,
		},
		{
			name:    "config error",
			code:    "R101",
			wantMsg: "Invalid config file",
			wantCat: CategoryConfig,
		},
		{
			name:    "inspector error",
			code:    "R210",
			wantMsg: "Node not found",
			wantCat: CategoryInspect,
		},
		{
			name:    "unknown error code",
			code:    "R999",
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

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown level %q", "loud")
	if err.Message != `unknown level "loud"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Error() != err.Message {
		t.Errorf("Error() = %q, want message only", err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := New("R101").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if got := err.Error(); got != "R101: Invalid config file: permission denied" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"cycle", &reactive.CycleError{ID: 7}, "R001"},
		{"wrapped cycle", fmt.Errorf("eval: %w", &reactive.CycleError{ID: 7}), "R001"},
		{"txn", reactive.ErrTxnNotActive, "R002"},
		{"unresolved", reactive.ErrUnresolved, "R003"},
		{"loop", reactive.ErrLoopStopped, "R004"},
		{"panic", fmt.Errorf("%w: boom", reactive.ErrTaskPanicked), "R005"},
		{"other", stderrors.New("boom"), "R201"},
		{"already coded", New("R212"), "R212"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromError(tt.err, "R201")
			if got.Code != tt.want {
				t.Errorf("Code = %q, want %q", got.Code, tt.want)
			}
			if !Is(got, tt.want) {
				t.Errorf("Is(%q) = false", tt.want)
			}
		})
	}

	if FromError(nil, "R201") != nil {
		t.Error("expected nil for nil error")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("R100").WithLocation("derivable.yaml", 3, 0).Wrap(stderrors.New("no such file"))
	out := err.Format()

	for _, want := range []string{
		"ERROR R100: Config file not found",
		"derivable.yaml:3",
		"Cause: no such file",
		"Hint: Run 'derivable config init' to create one.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != "derivable.yaml:3: R100: Config file not found: no such file" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("R210").WithDetail("no node named price")

	var decoded map[string]any
	if e := json.Unmarshal([]byte(err.FormatJSON()), &decoded); e != nil {
		t.Fatalf("invalid JSON: %v", e)
	}
	if decoded["code"] != "R210" {
		t.Errorf("code = %v", decoded["code"])
	}
	if decoded["category"] != "inspect" {
		t.Errorf("category = %v", decoded["category"])
	}
	if decoded["detail"] != "no node named price" {
		t.Errorf("detail = %v", decoded["detail"])
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than 10", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}

func TestRegistryCodes(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has an incomplete template", code)
		}
	}
}
