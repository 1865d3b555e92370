package callback

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in         string
		wantScheme string
		wantString string
	}{
		{"ping", SchemeLocal, "local://ping"},
		{"local://ping", SchemeLocal, "local://ping"},
		{"local://deploy/status", SchemeLocal, "local://deploy/status"},
		{"https://hooks.example.com/chat", SchemeHTTPS, "https://hooks.example.com/chat"},
		{"HTTP://hooks.example.com/chat", SchemeHTTP, "http://hooks.example.com/chat"},
		{"ws://127.0.0.1:9000/cb", SchemeWS, "ws://127.0.0.1:9000/cb"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := ParseAddress(tt.in)
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.in, err)
			}
			if a.Scheme() != tt.wantScheme {
				t.Errorf("scheme = %q, want %q", a.Scheme(), tt.wantScheme)
			}
			if a.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", a.String(), tt.wantString)
			}
		})
	}
}

func TestParseAddress_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "ftp://example.com/x", "local://", "https:///nohost"} {
		if _, err := ParseAddress(in); err == nil {
			t.Errorf("ParseAddress(%q): expected error", in)
		}
	}
}

func TestAddressIdentityIsStable(t *testing.T) {
	a := MustParseAddress("local://ping")
	b := Local("ping")
	if a != b {
		t.Errorf("expected %v == %v", a, b)
	}
}
