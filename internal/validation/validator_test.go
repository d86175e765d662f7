package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationError_Fields(t *testing.T) {
	tests := []struct {
		name       string
		fill       func(e *ValidationError)
		wantFields []string
	}{
		{
			name: "valid user fields",
			fill: func(e *ValidationError) {
				e.Username("jane.doe+blog")
				e.Email("jane@example.com")
			},
		},
		{
			name: "blank username",
			fill: func(e *ValidationError) {
				e.Username("   ")
			},
			wantFields: []string{"username"},
		},
		{
			name: "username with spaces",
			fill: func(e *ValidationError) {
				e.Username("jane doe")
			},
			wantFields: []string{"username"},
		},
		{
			name: "invalid email format",
			fill: func(e *ValidationError) {
				e.Email("not-an-email")
			},
			wantFields: []string{"email"},
		},
		{
			name: "title too long",
			fill: func(e *ValidationError) {
				e.MaxLength("title", strings.Repeat("a", 101), 100)
			},
			wantFields: []string{"title"},
		},
		{
			name: "invalid status",
			fill: func(e *ValidationError) {
				e.PostStatus("archived")
			},
			wantFields: []string{"status"},
		},
		{
			name: "valid status",
			fill: func(e *ValidationError) {
				e.PostStatus("published")
			},
		},
		{
			name: "invalid choice",
			fill: func(e *ValidationError) {
				e.Choice("status", "bogus", "all", "draft", "published")
			},
			wantFields: []string{"status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			tt.fill(e)

			if len(e.Fields) != len(tt.wantFields) {
				t.Errorf("got %d fields with errors, want %d. Errors: %v", len(e.Fields), len(tt.wantFields), e.Fields)
			}
			for _, wantField := range tt.wantFields {
				if !e.Has(wantField) {
					t.Errorf("Expected error for field '%s' but not found", wantField)
				}
			}
		})
	}
}

func TestValidationError_OrNil(t *testing.T) {
	if err := New().OrNil(); err != nil {
		t.Errorf("empty error set should be nil, got %v", err)
	}

	err := Field("title", "post with this title already exists.").OrNil()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Fields["title"][0] != "post with this title already exists." {
		t.Errorf("unexpected message: %v", verr.Fields)
	}
	if !strings.Contains(err.Error(), "title") {
		t.Errorf("error string should name the field: %s", err.Error())
	}
}

func TestPasswordProblems(t *testing.T) {
	attrs := []UserAttribute{
		{Name: "username", Value: "johnsmith"},
		{Name: "email address", Value: "john.smith@example.com"},
		{Name: "name", Value: "John"},
	}

	tests := []struct {
		name     string
		password string
		want     []string
	}{
		{
			name:     "strong password",
			password: "Xk9#mQ2$vL",
		},
		{
			name:     "too short",
			password: "abc",
			want:     []string{"This password is too short. It must contain at least 8 characters."},
		},
		{
			name:     "common and numeric",
			password: "12345678",
			want:     []string{"This password is too common.", "This password is entirely numeric."},
		},
		{
			name:     "common regardless of case",
			password: "PassWord",
			want:     []string{"This password is too common."},
		},
		{
			name:     "similar to username",
			password: "johnsmith1",
			want:     []string{"The password is too similar to the username."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PasswordProblems(tt.password, attrs...)
			if len(got) != len(tt.want) {
				t.Fatalf("PasswordProblems() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("problem %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestQuickRatio(t *testing.T) {
	if r := quickRatio("abcd", "abcd"); r != 1 {
		t.Errorf("identical strings ratio = %v, want 1", r)
	}
	if r := quickRatio("abcd", "wxyz"); r != 0 {
		t.Errorf("disjoint strings ratio = %v, want 0", r)
	}
	if r := quickRatio("ab", "abcd"); r < 0.66 || r > 0.67 {
		t.Errorf("partial ratio = %v, want ~0.667", r)
	}
}

func BenchmarkPasswordProblems(b *testing.B) {
	attrs := []UserAttribute{{Name: "username", Value: "benchmark_user"}, {Name: "email address", Value: "bench@example.com"}}
	for i := 0; i < b.N; i++ {
		PasswordProblems("correct horse battery staple", attrs...)
	}
}
