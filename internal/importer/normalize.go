package importer

// normalize.go canonicalizes arbitrary upload headers into known logical
// fields. Normalization is purely mechanical (lowercase, trim, strip
// separators); truly distinct spellings of the same field are covered by
// the synonym table below. No validation happens at this layer.

import "strings"

// NormalizeKey reduces a raw column header to its canonical token:
// lowercased, trimmed, with spaces, underscores and hyphens removed.
// "Product SKU", "product_sku" and "productsku" all collapse to
// "productsku".
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, Excel formula prefixes (="..."), and stray
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	return strings.Trim(s, `"'`)
}

// RawRow is one upload row keyed by normalized header, plus its
// 1-indexed position in the source file (header included) for error
// messages. Ephemeral: discarded after grouping and line resolution.
type RawRow struct {
	Fields map[string]string
	Num    int
}

// fieldSynonyms maps each logical field to the normalized header tokens
// that may carry it, in lookup priority order.
var fieldSynonyms = map[string][]string{
	"orderid":  {"orderid", "ordernumber", "externalid", "orderno", "order"},
	"sku":      {"sku", "productsku", "itemsku", "product", "item"},
	"color":    {"color", "colour", "variantcolor"},
	"size":     {"size", "variantsize"},
	"qty":      {"qty", "quantity", "count", "units"},
	"name":     {"name", "recipientname", "customername", "shiptoname", "recipient", "fullname"},
	"address1": {"address1", "addressline1", "street1", "street", "address"},
	"address2": {"address2", "addressline2", "street2", "apt", "suite"},
	"city":     {"city", "town"},
	"state":    {"state", "province", "region", "stateprovince"},
	"zip":      {"zip", "zipcode", "postalcode", "postcode"},
	"country":  {"country", "countrycode"},
	"phone":    {"phone", "phonenumber", "telephone", "contactnumber"},

	// Single free-text address, used as a fallback when address1 is empty.
	"shippingaddress": {"shippingaddress", "fulladdress", "addressfull"},

	"notes": {"notes", "note", "comments", "comment", "instructions"},

	// Legacy single design column.
	"designlink": {"designlink", "designurl", "design", "artworkurl", "artwork", "printfile"},
}

// designSlotSynonyms lists header tokens for the indexed design slots.
// Slot placeholders contain %d, expanded 1..maxDesignSlots.
var designSlotSynonyms = map[string][]string{
	"url":      {"design%durl", "design%dlink", "design%d"},
	"position": {"design%dposition", "design%dlocation", "position%d", "location%d"},
	"mockup":   {"design%dmockup", "mockup%d", "mockup%durl"},
	"type":     {"design%dtype", "printtype%d"},
}

// Get returns the cleaned value for a normalized header token, or ""
// when absent.
func (r RawRow) Get(key string) string {
	return CleanCell(r.Fields[key])
}

// First returns the first non-empty value among a logical field's
// synonyms. Unknown fields yield "".
func (r RawRow) First(field string) string {
	for _, key := range fieldSynonyms[field] {
		if v := r.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// NewRawRow builds a RawRow from a header and a data record. When two
// source columns normalize to the same token, the first non-empty value
// wins. Unknown columns are preserved; downstream simply never asks for
// them.
func NewRawRow(header []string, record []string, num int) RawRow {
	fields := make(map[string]string, len(header))
	for i, h := range header {
		if i >= len(record) {
			break
		}
		key := NormalizeKey(h)
		if key == "" {
			continue
		}
		if existing, ok := fields[key]; ok && existing != "" {
			continue
		}
		fields[key] = record[i]
	}
	return RawRow{Fields: fields, Num: num}
}
