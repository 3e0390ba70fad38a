package model

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"SAVED", "SUBMITTED", "APPROVED", "REJECTED"} {
		if st, ok := ParseStatus(s); !ok || string(st) != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, st, ok)
		}
	}
	for _, s := range []string{"", "saved", "DRAFT"} {
		if _, ok := ParseStatus(s); ok {
			t.Errorf("ParseStatus(%q) should fail", s)
		}
	}
	if StatusSubmitted.Terminal() || !StatusRejected.Terminal() || !StatusApproved.Terminal() {
		t.Fatalf("unexpected terminal states")
	}
}

func TestConsistent(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		doc  Document
		want bool
	}{
		{"draft", Document{Status: StatusSaved}, true},
		{"draft with date", Document{Status: StatusSaved, SubmissionDate: &now}, false},
		{"submitted", Document{Status: StatusSubmitted, SubmissionDate: &now}, true},
		{"submitted without date", Document{Status: StatusSubmitted}, false},
		{"approved", Document{Status: StatusApproved, SubmissionDate: &now, ReviewDate: &now, DocumentReceiver: "bob"}, true},
		{"approved with reason", Document{Status: StatusApproved, SubmissionDate: &now, ReviewDate: &now, DocumentReceiver: "bob", RejectionReason: "x"}, false},
		{"rejected", Document{Status: StatusRejected, SubmissionDate: &now, ReviewDate: &now, DocumentReceiver: "bob", RejectionReason: "x"}, true},
		{"rejected without reason", Document{Status: StatusRejected, SubmissionDate: &now, ReviewDate: &now, DocumentReceiver: "bob"}, false},
		{"unknown status", Document{Status: "ARCHIVED"}, false},
	}
	for _, tc := range cases {
		if got := tc.doc.Consistent(); got != tc.want {
			t.Errorf("%s: Consistent() = %v", tc.name, got)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	d := &Document{
		ID:             1,
		Status:         StatusSubmitted,
		SubmissionDate: &now,
		Attachments:    []Attachment{{ID: "a", FileName: "a.txt", Data: []byte("abc")}},
	}
	cp := d.Clone()
	cp.Attachments[0].Data[0] = 'z'
	cp.Attachments[0].FileName = "b.txt"
	*cp.SubmissionDate = now.Add(time.Hour)
	if string(d.Attachments[0].Data) != "abc" || d.Attachments[0].FileName != "a.txt" {
		t.Fatalf("attachments shared with clone")
	}
	if !d.SubmissionDate.Equal(now) {
		t.Fatalf("submission date shared with clone")
	}
}

func TestNewView(t *testing.T) {
	d := &Document{ID: 7, Title: "t", Attachments: []Attachment{{ID: "a", FileName: "x.pdf"}, {ID: "b", FileName: "y.pdf"}}}
	v := NewView(d)
	if v.ID != 7 || len(v.FileIDs) != 2 || v.FileIDs[1] != "b" || v.FileNames[0] != "x.pdf" {
		t.Fatalf("unexpected view %+v", v)
	}
	if empty := NewView(&Document{}); empty.FileIDs == nil || empty.FileNames == nil {
		t.Fatalf("view lists must not be nil")
	}
}
