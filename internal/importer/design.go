package importer

// design.go validates creative-asset completeness for a line. A line
// must carry at least one design reference: either the legacy single
// design-link column or one of four indexed slots. Only asset presence
// and position metadata are checked; URLs are never fetched.

import "fmt"

// maxDesignSlots is the number of indexed design slots an upload row
// may carry.
const maxDesignSlots = 4

// legacyPosition is the implicit placement for the legacy single
// design-link column.
const legacyPosition = "Front"

// designSlotValue reads one attribute of an indexed design slot using
// its synonym list.
func designSlotValue(row RawRow, attr string, slot int) string {
	for _, pattern := range designSlotSynonyms[attr] {
		if v := row.Get(fmt.Sprintf(pattern, slot)); v != "" {
			return v
		}
	}
	return ""
}

// collectDesigns gathers the line's design references and appends
// validation errors to the order. Slot 1 is special: a present URL with
// no position is an error, and a fully empty slot 1 with no legacy link
// means the line has no design at all. Duplicate URLs across slots keep
// their first occurrence.
func collectDesigns(o *ParsedOrder, row RawRow) []Design {
	var designs []Design
	seen := make(map[string]bool)

	add := func(d Design) {
		if seen[d.URL] {
			return
		}
		seen[d.URL] = true
		designs = append(designs, d)
	}

	legacy := row.First("designlink")
	if legacy != "" {
		add(Design{URL: legacy, Position: legacyPosition})
	}

	for slot := 1; slot <= maxDesignSlots; slot++ {
		url := designSlotValue(row, "url", slot)
		position := designSlotValue(row, "position", slot)

		if slot == 1 {
			if url == "" && legacy == "" {
				o.AddError(KindDesignMissing, "Design 1 is required")
				continue
			}
			if url != "" && position == "" {
				o.AddError(KindPositionMissing, "Position 1 required")
			}
		}
		if url == "" {
			continue
		}
		add(Design{
			URL:       url,
			Position:  position,
			MockupURL: designSlotValue(row, "mockup", slot),
			Type:      designSlotValue(row, "type", slot),
		})
	}
	return designs
}
