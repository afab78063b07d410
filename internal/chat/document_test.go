package chat

import "testing"

func TestParseDataURI(t *testing.T) {
	cases := []struct {
		in       string
		mimeType string
		payload  string
		ok       bool
	}{
		{"data:image/png;base64,iVBORw0K", "image/png", "iVBORw0K", true},
		{"data:application/pdf;base64,", "application/pdf", "", true},
		{"data:image/png,notbase64", "", "", false},
		{"plain text", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		mimeType, payload, ok := ParseDataURI(tc.in)
		if ok != tc.ok || mimeType != tc.mimeType || payload != tc.payload {
			t.Fatalf("ParseDataURI(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.in, mimeType, payload, ok, tc.mimeType, tc.payload, tc.ok)
		}
	}
}

func TestIsDataURI(t *testing.T) {
	if !(Document{Content: "data:image/png;base64,AAAA"}).IsDataURI() {
		t.Fatalf("expected data URI")
	}
	if (Document{Content: "some text"}).IsDataURI() {
		t.Fatalf("plain text is not a data URI")
	}
}
