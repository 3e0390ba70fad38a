package model

import "time"

// DocumentView is the lightweight client view of a document. Attachment bytes
// are left out; only ids and names travel with the view.
type DocumentView struct {
	ID               int64      `json:"id"`
	Author           string     `json:"author"`
	DocType          string     `json:"docType"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           Status     `json:"status"`
	SubmissionDate   *time.Time `json:"submissionDate,omitempty"`
	ReviewDate       *time.Time `json:"reviewDate,omitempty"`
	DocumentReceiver string     `json:"documentReceiver,omitempty"`
	RejectionReason  string     `json:"rejectionReason,omitempty"`
	FileIDs          []string   `json:"fileIds"`
	FileNames        []string   `json:"fileNames"`
}

// NewView maps a document to its client view.
func NewView(d *Document) DocumentView {
	v := DocumentView{
		ID:               d.ID,
		Author:           d.Author,
		DocType:          d.DocType,
		Title:            d.Title,
		Description:      d.Description,
		Status:           d.Status,
		SubmissionDate:   d.SubmissionDate,
		ReviewDate:       d.ReviewDate,
		DocumentReceiver: d.DocumentReceiver,
		RejectionReason:  d.RejectionReason,
		FileIDs:          make([]string, 0, len(d.Attachments)),
		FileNames:        make([]string, 0, len(d.Attachments)),
	}
	for _, a := range d.Attachments {
		v.FileIDs = append(v.FileIDs, a.ID)
		v.FileNames = append(v.FileNames, a.FileName)
	}
	return v
}

// Page is one slice of a query result together with the number of documents
// that match the same filter overall.
type Page struct {
	Items []DocumentView `json:"items"`
	Index int            `json:"page"`
	Size  int            `json:"size"`
	Total int            `json:"total"`
}

// UploadResult describes a stored attachment and where to fetch it.
type UploadResult struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	DownloadURI string `json:"fileDownloadUri"`
	ContentType string `json:"fileType"`
	Size        int64  `json:"size"`
}

// StatusCounts summarises review outcomes for one docType over a date range.
type StatusCounts struct {
	Submitted int `json:"submittedCount"`
	Approved  int `json:"approvedCount"`
	Rejected  int `json:"rejectedCount"`
}

// AuthorCount is one row of the top-authors ranking.
type AuthorCount struct {
	Author    string `json:"author"`
	Submitted int    `json:"submittedDocuments"`
}
