package enrich

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// decodeRecord parses a model completion into a record, tolerating the
// markdown code fences some models wrap JSON in despite instructions.
func decodeRecord(completion string) (map[string]any, error) {
	text := stripCodeFences(completion)

	var record map[string]any
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, eris.Wrap(err, "enrich: parse model response as JSON")
	}
	return record, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
