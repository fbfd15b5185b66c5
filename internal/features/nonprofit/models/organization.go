package models

import "strings"

// Organization is the registry record of a tax-exempt organization.
type Organization struct {
	EIN     FlexString `json:"ein"`
	Name    string     `json:"name"`
	Address string     `json:"address"`
	City    string     `json:"city"`
	State   string     `json:"state"`
	Zipcode string     `json:"zipcode"`
}

// FullAddress joins the address parts the way they are printed on mail.
func (o *Organization) FullAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{o.Address, o.City, o.State, o.Zipcode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Reason string

const (
	ReasonFound          Reason = "found"
	ReasonNoOrganization Reason = "no_organization"
	ReasonHTTPStatus     Reason = "http_status"
)

// Validation is the classification of one EIN.
type Validation struct {
	EIN          string        `json:"ein"`
	Valid        bool          `json:"valid"`
	StatusCode   int           `json:"status_code"`
	Reason       Reason        `json:"reason"`
	Organization *Organization `json:"organization,omitempty"`
}

// ValidationResult partitions EINs into valid and invalid, both in input
// order. Every validated EIN is in exactly one of the two lists.
type ValidationResult struct {
	Valid   []string     `json:"valid"`
	Invalid []string     `json:"invalid"`
	Results []Validation `json:"results"`
}

func (r *ValidationResult) Add(v Validation) {
	if v.Valid {
		r.Valid = append(r.Valid, v.EIN)
	} else {
		r.Invalid = append(r.Invalid, v.EIN)
	}
	r.Results = append(r.Results, v)
}
