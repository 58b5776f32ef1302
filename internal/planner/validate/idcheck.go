package validate

import (
	"fmt"
	"regexp"

	"github.com/teerev/llm-contract-harness/internal/schema"
)

var idPattern = regexp.MustCompile(`^WO-([0-9]{2})$`)

// checkIDs enforces E001: every work order id matches WO-NN and the sequence
// is contiguous starting at 01, in manifest order.
func checkIDs(orders []schema.WorkOrder) []ValidationError {
	var errs []ValidationError
	for i, wo := range orders {
		want := i + 1
		m := idPattern.FindStringSubmatch(wo.ID)
		if m == nil {
			errs = append(errs, ValidationError{
				Code: E001, WorkOrder: wo.ID, Field: "id",
				Message: fmt.Sprintf("id %q does not match pattern WO-NN", wo.ID),
			})
			continue
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n != want {
			errs = append(errs, ValidationError{
				Code: E001, WorkOrder: wo.ID, Field: "id",
				Message: fmt.Sprintf("id %q is out of sequence, expected WO-%02d", wo.ID, want),
			})
		}
	}
	return errs
}
