package model

import "time"

// Attachment is a named binary payload embedded in a document.
type Attachment struct {
	ID          string
	DocumentID  int64
	FileName    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Size is the byte length of the payload.
func (a Attachment) Size() int64 {
	return int64(len(a.Data))
}

func (a Attachment) Clone() Attachment {
	cp := a
	if a.Data != nil {
		cp.Data = append([]byte(nil), a.Data...)
	}
	return cp
}
