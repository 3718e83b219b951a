package detection

import (
	"fmt"

	"github.com/azure/sov-mentions-bot/internal/models"
	"github.com/azure/sov-mentions-bot/internal/textmatch"
)

// Validate reports names that several brands share or that occur as a whole word
// inside another brand's name. Such brands are matched independently, so one span
// of text can count for both.
func Validate(brands []models.Brand) []string {
	type owned struct {
		brandID string
		name    string
	}

	var names []owned
	for _, b := range brands {
		for _, n := range b.Names() {
			if !textmatch.IsBlank(n) {
				names = append(names, owned{brandID: b.ID, name: textmatch.Normalize(n)})
			}
		}
	}

	var warnings []string
	seen := make(map[string]bool)

	for i, a := range names {
		for j, b := range names {
			if i == j || a.brandID == b.brandID {
				continue
			}

			key := a.brandID + "|" + a.name + "|" + b.brandID + "|" + b.name
			if a.name == b.name {
				if i < j && !seen[key] {
					seen[key] = true
					warnings = append(warnings, fmt.Sprintf("brands %s and %s share the name %q", a.brandID, b.brandID, a.name))
				}
				continue
			}

			re, err := textmatch.WholeWordPattern(a.name)
			if err != nil {
				continue
			}
			if _, _, ok := textmatch.FindWholeWord(re, b.name); ok && !seen[key] {
				seen[key] = true
				warnings = append(warnings, fmt.Sprintf("name %q of brand %s also matches inside %q of brand %s", a.name, a.brandID, b.name, b.brandID))
			}
		}
	}

	return warnings
}
