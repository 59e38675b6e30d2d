package journal

import (
	"time"

	"github.com/nwafound/ramp-bc-export/internal/ramp"
)

const (
	selectionGLAccount = "GL_ACCOUNT"
	selectionOther     = "OTHER"

	externalIDDepartment = "Department"
	externalIDActivity   = "Activity Code"
)

// dimensions is the accounting coding scraped off one selection list: the
// G/L account plus the optional department and activity tags.
type dimensions struct {
	glAccount  ramp.Code
	department string
	activity   string
}

// scanSelections extracts accounting dimensions from a selection list.
// Transactions and reimbursements discriminate on the selection's own type;
// bills bury the discriminator one level down in category_info (byCategory).
func scanSelections(selections []ramp.AccountingFieldSelection, byCategory bool) dimensions {
	var d dimensions
	for _, sel := range selections {
		kind := sel.Type
		if byCategory {
			kind = sel.CategoryInfo.Type
		}
		switch kind {
		case selectionGLAccount:
			d.glAccount = sel.ExternalCode
		case selectionOther:
			switch sel.CategoryInfo.ExternalID {
			case externalIDDepartment:
				d.department = sel.ExternalCode.String()
			case externalIDActivity:
				d.activity = sel.ExternalCode.String()
			}
		}
	}
	return d
}

// firstItemSelections returns the selection list of the first line item.
// Record-level coding for transactions and bills lives there.
func firstItemSelections(items []ramp.LineItem) []ramp.AccountingFieldSelection {
	if len(items) == 0 {
		return nil
	}
	return items[0].AccountingFieldSelections
}

// postingDate takes the YYYY-MM-DD prefix of the first non-empty candidate
// date, falling back to today.
func postingDate(candidates ...string) string {
	for _, c := range candidates {
		if len(c) >= 10 {
			return c[:10]
		}
		if c != "" {
			return c
		}
	}
	return time.Now().Format("2006-01-02")
}
