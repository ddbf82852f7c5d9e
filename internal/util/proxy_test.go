package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.internal:3128", "http://secure.internal:3128", "skip.example.org")

	tests := []struct {
		desc string
		url  string
		want string
	}{
		{desc: "http uses http proxy", url: "http://www.politifact.com/", want: "http://proxy.internal:3128"},
		{desc: "https uses https proxy", url: "https://fullfact.org/latest/", want: "http://secure.internal:3128"},
		{desc: "no_proxy bypasses", url: "https://skip.example.org/", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			got, err := proxy(req)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("Expected no proxy, got %v", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("Expected proxy %s, got %v", tt.want, got)
			}
		})
	}
}
