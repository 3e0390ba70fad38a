package model

// Role is a named set of permitted operations. The catalog only drives which
// actions a client offers; the lifecycle engine never consults it.
type Role struct {
	Name       string   `json:"name"`
	Operations []string `json:"operations"`
}
