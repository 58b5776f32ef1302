package validate

import "github.com/teerev/llm-contract-harness/internal/schema"

// ApplyVerifyExempt overwrites every work order's VerifyExempt field. The
// planner always recomputes this value on emission; any value the LLM
// supplied is discarded, since it is advisory metadata the LLM cannot be
// trusted to derive correctly from the cumulative chain.
//
// An order is exempt iff the verify contract is not yet fully satisfied by
// the cumulative state *after* this order runs — i.e. global verify would
// fail structurally because a required file has not been created yet. When
// verify_contract is absent, every order is forced to false.
func ApplyVerifyExempt(m *schema.Manifest, initialRepoListing map[string]bool) {
	if m.VerifyContract == nil || len(m.VerifyContract.Requires) == 0 {
		for i := range m.WorkOrders {
			m.WorkOrders[i].VerifyExempt = false
		}
		return
	}

	state := fileState{}
	for p := range initialRepoListing {
		state[p] = true
	}

	for i := range m.WorkOrders {
		wo := &m.WorkOrders[i]
		for _, c := range wo.Postconditions {
			// Mirrors Validate's own state update: only file_exists is a
			// legitimate postcondition kind (E107 rejects file_absent), so
			// only it advances state here.
			if c.Kind == schema.FileExists {
				state[c.Path] = true
			}
		}
		wo.VerifyExempt = !allSatisfied(m.VerifyContract.Requires, state)
	}
}

func allSatisfied(reqs []schema.Condition, state fileState) bool {
	for _, c := range reqs {
		if !satisfied(c, state) {
			return false
		}
	}
	return true
}
