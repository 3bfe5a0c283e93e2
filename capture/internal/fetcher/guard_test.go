package fetcher

import (
	"context"
	"errors"
	"testing"
)

func TestCheckURL(t *testing.T) {
	tests := []struct {
		url          string
		allowPrivate bool
		want         error
	}{
		{"https://93.184.216.34/page", false, nil},
		{"ftp://example.com/file", false, ErrUnsafeScheme},
		{"file:///etc/passwd", true, ErrUnsafeScheme},
		{"http://127.0.0.1:8080/", false, ErrPrivateHost},
		{"http://[::1]/", false, ErrPrivateHost},
		{"http://10.1.2.3/", false, ErrPrivateHost},
		{"http://192.168.0.10/", false, ErrPrivateHost},
		{"http://169.254.169.254/latest/meta-data", false, ErrPrivateHost},
		{"http://[::ffff:10.0.0.1]/", false, ErrPrivateHost},
		{"http://127.0.0.1:8080/", true, nil},
	}
	for _, tt := range tests {
		err := CheckURL(context.Background(), tt.url, tt.allowPrivate)
		if tt.want == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tt.url, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.url, err, tt.want)
		}
	}
}

func TestCheckURL_NoHost(t *testing.T) {
	if err := CheckURL(context.Background(), "http:///path", false); err == nil {
		t.Fatal("expected error for URL without host")
	}
}
