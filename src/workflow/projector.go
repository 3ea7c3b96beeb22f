package workflow

// Record is a loosely-typed document as returned by the upstream APIs.
type Record map[string]any

// Project keeps only the given fields of each record, in order. Missing
// fields are filled with an empty string.
func Project(records []Record, fields []string) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		projected := make(Record, len(fields))
		for _, field := range fields {
			if v, ok := rec[field]; ok {
				projected[field] = v
			} else {
				projected[field] = ""
			}
		}
		out[i] = projected
	}
	return out
}

// FilterByType keeps records whose "type" equals acceptableType and whose
// "subtype" is one of subtypes.
func FilterByType(records []Record, acceptableType string, subtypes []string) []Record {
	allowed := make(map[string]struct{}, len(subtypes))
	for _, s := range subtypes {
		allowed[s] = struct{}{}
	}

	var out []Record
	for _, rec := range records {
		if t, _ := rec["type"].(string); t != acceptableType {
			continue
		}
		st, _ := rec["subtype"].(string)
		if _, ok := allowed[st]; !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}
