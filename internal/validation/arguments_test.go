package validation

import (
	"errors"
	"testing"
)

func TestRequireString(t *testing.T) {
	args := map[string]any{
		"path":    "/projects/a.txt",
		"empty":   "",
		"number":  42,
		"nothing": nil,
	}

	tests := []struct {
		name    string
		key     string
		want    string
		wantErr string
	}{
		{"present", "path", "/projects/a.txt", ""},
		{"empty allowed", "empty", "", ""},
		{"missing", "content", "", `invalid argument "content": required`},
		{"null", "nothing", "", `invalid argument "nothing": required`},
		{"wrong type", "number", "", `invalid argument "number": must be a string, got int`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequireString(args, tt.key)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("expected error %q, got %v", tt.wantErr, err)
				}
				var fe *FieldError
				if !errors.As(err, &fe) || fe.Field != tt.key {
					t.Errorf("expected FieldError for %q, got %#v", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateArguments(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		got, err := ValidateArguments(map[string]any{"path": "p", "content": "c", "extra": true}, []string{"path", "content"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["path"] != "p" || got["content"] != "c" {
			t.Errorf("unexpected values: %v", got)
		}
		if _, ok := got["extra"]; ok {
			t.Error("unrequested keys should not be returned")
		}
	})

	t.Run("first missing field in sorted order", func(t *testing.T) {
		_, err := ValidateArguments(map[string]any{}, []string{"path", "content"})
		var fe *FieldError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FieldError, got %v", err)
		}
		if fe.Field != "content" {
			t.Errorf("expected content to be reported first, got %q", fe.Field)
		}
	})

	t.Run("nil args", func(t *testing.T) {
		if _, err := ValidateArguments(nil, []string{"path"}); err == nil {
			t.Error("expected error for nil args")
		}
	})

	t.Run("no requirements", func(t *testing.T) {
		got, err := ValidateArguments(nil, nil)
		if err != nil || len(got) != 0 {
			t.Errorf("got %v, %v", got, err)
		}
	})
}
