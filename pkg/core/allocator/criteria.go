package allocator

// ValidationError represents a constraint violation found in the final state
type ValidationError struct {
	Date          string
	StaffID       int
	ShiftType     string
	CriterionName string
	Description   string
}

// Criterion defines the interface for allocation constraints.
// Criteria gate which candidates may take a demand, and re-check the final state.
type Criterion interface {
	// Name returns a human-readable identifier for this criterion
	Name() string

	// IsCandidateValid determines if a staff member may fill the given demand
	// Returns false to exclude the candidate for this demand
	IsCandidateValid(state *AllocationState, staffID int, demand ShiftDemand) bool

	// ValidateState checks the state for violations of this criterion.
	// Pre-seeded markings are checked too, so violations are reported rather than fatal.
	ValidateState(state *AllocationState) []ValidationError
}

// DefaultCriteria returns the constraints every run enforces
func DefaultCriteria(opts Options) []Criterion {
	return []Criterion{
		NewUniquenessCriterion(),
		NewRoleCriterion(),
		NewCalendarCriterion(),
		NewIntervalCriterion(opts.MinIntervalDays),
	}
}

// IsCandidateValid checks whether a staff member can take a demand.
// The candidate must be eligible, free on the demand's date, and pass every criterion.
func IsCandidateValid(state *AllocationState, staffID int, demand ShiftDemand, criteria []Criterion) bool {
	if !demand.IsEligible(staffID) {
		return false
	}

	if _, busy := state.ShiftOn(staffID, demand.Date); busy {
		return false
	}

	// Check all criteria
	for _, criterion := range criteria {
		if !criterion.IsCandidateValid(state, staffID, demand) {
			return false
		}
	}

	return true
}
