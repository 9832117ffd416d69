package model

import "strings"

// EnrichRequest is the input to every enrichment endpoint. Parts requests
// carry PartNumber, the other portals carry ModelNumber; exactly one is
// required.
type EnrichRequest struct {
	Brand       string `json:"brand"`
	ModelNumber string `json:"model_number,omitempty"`
	PartNumber  string `json:"part_number,omitempty"`
	Description string `json:"description,omitempty"`
}

// Identifier returns whichever product number the request carries.
func (r EnrichRequest) Identifier() string {
	if r.PartNumber != "" {
		return r.PartNumber
	}
	return r.ModelNumber
}

// Validate reports the first problem with the request, or "".
func (r EnrichRequest) Validate() string {
	if strings.TrimSpace(r.Brand) == "" {
		return "brand is required"
	}
	if strings.TrimSpace(r.Identifier()) == "" {
		return "model_number or part_number is required"
	}
	return ""
}
