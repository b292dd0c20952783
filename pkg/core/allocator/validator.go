package allocator

// ValidateState validates the final state against all provided criteria.
// Returns a slice of validation errors for any constraint violations.
// An empty slice indicates the state is valid.
func ValidateState(state *AllocationState, criteria []Criterion) []ValidationError {
	errors := []ValidationError{}

	// Run validation for each criterion
	for _, criterion := range criteria {
		criterionErrors := criterion.ValidateState(state)
		errors = append(errors, criterionErrors...)
	}

	return errors
}
