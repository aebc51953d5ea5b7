package importer

import "github.com/google/uuid"

// OrderGroup clusters the rows of one logical order. Key is the
// external order id when the upload carries one, otherwise a generated
// ephemeral key so unrelated one-off rows are never merged.
type OrderGroup struct {
	Key      string
	External bool
	Rows     []RawRow
}

// tempKeyPrefix marks generated group keys; they surface as tempId in
// the dry-run report and are never persisted.
const tempKeyPrefix = "tmp-"

// GroupRows clusters normalized rows by the first non-empty order-id
// synonym value. Group order follows first appearance and row order
// within a group is preserved, so repeated dry-runs cite the same row
// numbers in the same order.
func GroupRows(rows []RawRow) []OrderGroup {
	var groups []OrderGroup
	index := make(map[string]int)

	for _, row := range rows {
		key := row.First("orderid")
		if key == "" {
			// Singleton group with a fresh ephemeral key.
			groups = append(groups, OrderGroup{
				Key:  tempKeyPrefix + uuid.NewString(),
				Rows: []RawRow{row},
			})
			continue
		}
		if i, ok := index[key]; ok {
			groups[i].Rows = append(groups[i].Rows, row)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, OrderGroup{Key: key, External: true, Rows: []RawRow{row}})
	}
	return groups
}
