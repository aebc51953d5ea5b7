package importer

// address.go extracts the shipping address for an order group from the
// group's first row. Structured columns win; a single free-text
// "shipping address" column is the fallback, split on commas
// positionally. The split is a best-effort heuristic and will misassign
// fields when the street line itself contains commas (apartment
// numbers); structured columns are the supported path.

import (
	"fmt"
	"strings"
)

// usStates maps US state full names to their two-letter abbreviations.
var usStates = map[string]string{
	"alabama":        "AL",
	"alaska":         "AK",
	"arizona":        "AZ",
	"arkansas":       "AR",
	"california":     "CA",
	"colorado":       "CO",
	"connecticut":    "CT",
	"delaware":       "DE",
	"florida":        "FL",
	"georgia":        "GA",
	"hawaii":         "HI",
	"idaho":          "ID",
	"illinois":       "IL",
	"indiana":        "IN",
	"iowa":           "IA",
	"kansas":         "KS",
	"kentucky":       "KY",
	"louisiana":      "LA",
	"maine":          "ME",
	"maryland":       "MD",
	"massachusetts":  "MA",
	"michigan":       "MI",
	"minnesota":      "MN",
	"mississippi":    "MS",
	"missouri":       "MO",
	"montana":        "MT",
	"nebraska":       "NE",
	"nevada":         "NV",
	"new hampshire":  "NH",
	"new jersey":     "NJ",
	"new mexico":     "NM",
	"new york":       "NY",
	"north carolina": "NC",
	"north dakota":   "ND",
	"ohio":           "OH",
	"oklahoma":       "OK",
	"oregon":         "OR",
	"pennsylvania":   "PA",
	"rhode island":   "RI",
	"south carolina": "SC",
	"south dakota":   "SD",
	"tennessee":      "TN",
	"texas":          "TX",
	"utah":           "UT",
	"vermont":        "VT",
	"virginia":       "VA",
	"washington":     "WA",
	"west virginia":  "WV",
	"wisconsin":      "WI",
	"wyoming":        "WY",
}

// normalizeUSState converts a US state name to its two-letter code.
// Existing codes and unrecognized values pass through unchanged.
func normalizeUSState(s string) string {
	s = strings.TrimSpace(s)
	if code, ok := usStates[strings.ToLower(s)]; ok {
		return code
	}
	upper := strings.ToUpper(s)
	for _, code := range usStates {
		if upper == code {
			return code
		}
	}
	return s
}

// resolveAddress fills the order's recipient/address snapshot from the
// group's first row and appends one error per missing required field.
// Missing fields never abort line processing.
func resolveAddress(o *ParsedOrder, group OrderGroup) {
	row := group.Rows[0]

	o.RecipientName = row.First("name")
	o.Address1 = row.First("address1")
	o.Address2 = row.First("address2")
	o.City = row.First("city")
	o.State = row.First("state")
	o.Zip = row.First("zip")
	o.Country = row.First("country")
	o.Phone = row.First("phone")

	if o.Address1 == "" {
		parseFreeTextAddress(o, row.First("shippingaddress"))
	}

	o.State = normalizeUSState(o.State)
	if o.Country == "" {
		o.Country = "US"
	}

	checkRequiredAddress(o)
}

// parseFreeTextAddress splits a single free-text address on commas
// positionally: part 0 is the street; with exactly 3 parts, parts 1-2
// are city/state (no zip); with 4 or more, parts 1-3 are city/state/zip
// and a 5th part, when present, is the country.
func parseFreeTextAddress(o *ParsedOrder, full string) {
	if full == "" {
		return
	}
	parts := strings.Split(full, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	o.Address1 = parts[0]
	switch {
	case len(parts) == 3:
		o.City = parts[1]
		o.State = parts[2]
	case len(parts) >= 4:
		o.City = parts[1]
		o.State = parts[2]
		o.Zip = parts[3]
		if len(parts) >= 5 {
			o.Country = parts[4]
		}
	}
}

func checkRequiredAddress(o *ParsedOrder) {
	required := []struct {
		value string
		label string
	}{
		{o.RecipientName, "recipient name"},
		{o.Address1, "address line 1"},
		{o.City, "city"},
		{o.State, "state"},
		{o.Zip, "zip"},
		{o.Country, "country"},
	}
	for _, f := range required {
		if f.value == "" {
			o.AddError(KindMissingField, fmt.Sprintf("Missing required field: %s", f.label))
		}
	}
}
