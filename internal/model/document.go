// Package model contains the document aggregate and the views handed to
// callers of the lifecycle and query services.
package model

import (
	"time"
)

// Status describes where a document sits in the review lifecycle.
type Status string

const (
	StatusSaved     Status = "SAVED"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// ParseStatus accepts the four lifecycle names.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusSaved, StatusSubmitted, StatusApproved, StatusRejected:
		return st, true
	}
	return "", false
}

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Document is the aggregate root. Attachments are owned by the document and
// never outlive it.
type Document struct {
	ID               int64
	Author           string
	DocType          string
	Title            string
	Description      string
	Status           Status
	SubmissionDate   *time.Time
	ReviewDate       *time.Time
	DocumentReceiver string
	RejectionReason  string
	Attachments      []Attachment
}

// Fields is the author-supplied part of a document.
type Fields struct {
	Author      string
	DocType     string
	Title       string
	Description string
}

// Clone returns a deep copy so stores can hand out documents without sharing
// attachment slices or timestamps.
func (d *Document) Clone() *Document {
	cp := *d
	if d.SubmissionDate != nil {
		t := *d.SubmissionDate
		cp.SubmissionDate = &t
	}
	if d.ReviewDate != nil {
		t := *d.ReviewDate
		cp.ReviewDate = &t
	}
	if d.Attachments != nil {
		cp.Attachments = make([]Attachment, len(d.Attachments))
		for i, a := range d.Attachments {
			cp.Attachments[i] = a.Clone()
		}
	}
	return &cp
}

// Consistent checks the presence rules tying timestamps, receiver and reason
// to the status.
func (d *Document) Consistent() bool {
	switch d.Status {
	case StatusSaved:
		return d.SubmissionDate == nil && d.ReviewDate == nil && d.DocumentReceiver == "" && d.RejectionReason == ""
	case StatusSubmitted:
		return d.SubmissionDate != nil && d.ReviewDate == nil && d.DocumentReceiver == "" && d.RejectionReason == ""
	case StatusApproved:
		return d.SubmissionDate != nil && d.ReviewDate != nil && d.DocumentReceiver != "" && d.RejectionReason == ""
	case StatusRejected:
		return d.SubmissionDate != nil && d.ReviewDate != nil && d.DocumentReceiver != "" && d.RejectionReason != ""
	}
	return false
}
