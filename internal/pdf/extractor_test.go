package pdfutil

import "testing"

func TestExtractTextRejectsNonPDF(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("plain text, not a pdf"), []byte("%PDF-1.4\ntruncated")} {
		if _, err := ExtractText(data); err == nil {
			t.Fatalf("expected error for %q", data)
		}
	}
}
