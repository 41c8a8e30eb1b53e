package utils_test

import (
	"errors"
	"testing"

	"github.com/2002Bishwajeet/ogbanana/internal/utils"
)

func TestValidateTargetURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		wantErr error
	}{
		{"https://example.com", nil},
		{"http://example.com:8080/a?b=c", nil},
		{"  https://example.com/  ", nil},
		{"", utils.ErrEmptyURL},
		{"example.com/page", utils.ErrNotAbsolute},
		{"/relative", utils.ErrNotAbsolute},
		{"ftp://example.com/file", utils.ErrUnsupportedScheme},
		{"javascript:alert(1)", utils.ErrNotAbsolute},
	}
	for _, tt := range tests {
		_, err := utils.ValidateTargetURL(tt.in)
		if tt.wantErr == nil && err != nil {
			t.Errorf("ValidateTargetURL(%q) = %v, want nil", tt.in, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateTargetURL(%q) = %v, want %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestFetchURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"HTTPS://Example.COM:443/Path#frag", "https://example.com/Path"},
		{"http://example.com:80/", "http://example.com/"},
		{"https://example.com:8443/page", "https://example.com:8443/page"},
		{"https://user:pw@example.com/", "https://example.com/"},
		{"https://example.com/p?z=1&utm_source=x&a=2&fbclid=y", "https://example.com/p?z=1&a=2"},
		{"https://例え.テスト/a", "https://xn--r8jz45g.xn--zckzah/a"},
	}
	for _, tt := range tests {
		got, err := utils.FetchURL(tt.in)
		if err != nil {
			t.Fatalf("FetchURL(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("FetchURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
