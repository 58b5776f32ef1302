package schema

import (
	"strings"

	"github.com/teerev/llm-contract-harness/internal/pathutil"
)

// NormalizeManifest applies path canonicalization and whitespace stripping
// to every path-typed field of every work order. It must run before any
// chain check, or "./src/a.py" and "src/a.py" are mis-tracked as distinct
// paths across orders. Returns the first normalization error encountered,
// annotated with the offending work-order ID and field name so the caller
// can turn it into an E004/E005-coded ValidationError.
func NormalizeManifest(m *Manifest) (workOrderID, field string, err error) {
	m.SystemOverview = strings.TrimSpace(m.SystemOverview)
	if m.VerifyContract != nil {
		for i, c := range m.VerifyContract.Requires {
			np, nerr := pathutil.Normalize(c.Path)
			if nerr != nil {
				return "", "verify_contract.requires", nerr
			}
			m.VerifyContract.Requires[i].Path = np
		}
	}
	for i := range m.WorkOrders {
		wo := &m.WorkOrders[i]
		wo.ID = strings.TrimSpace(wo.ID)
		wo.Title = strings.TrimSpace(wo.Title)
		wo.Intent = strings.TrimSpace(wo.Intent)

		if wo.AllowedFiles, err = pathutil.Dedup(wo.AllowedFiles); err != nil {
			return wo.ID, "allowed_files", err
		}
		if wo.ContextFiles, err = pathutil.Dedup(wo.ContextFiles); err != nil {
			return wo.ID, "context_files", err
		}
		if len(wo.ContextFiles) > MaxContextFiles {
			wo.ContextFiles = wo.ContextFiles[:MaxContextFiles]
		}
		for j, c := range wo.Preconditions {
			np, nerr := pathutil.Normalize(c.Path)
			if nerr != nil {
				return wo.ID, "preconditions", nerr
			}
			wo.Preconditions[j].Path = np
		}
		for j, c := range wo.Postconditions {
			np, nerr := pathutil.Normalize(c.Path)
			if nerr != nil {
				return wo.ID, "postconditions", nerr
			}
			wo.Postconditions[j].Path = np
		}
		for j, f := range wo.Forbidden {
			wo.Forbidden[j] = strings.TrimSpace(f)
		}
		wo.Notes = strings.TrimSpace(wo.Notes)
	}
	return "", "", nil
}
