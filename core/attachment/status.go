package attachment

// Status is the application workflow state. Transitions are forward-only;
// the four terminal states have no way out.
type Status string

const (
	StatusDraft              Status = "draft"
	StatusSubmitted          Status = "submitted"
	StatusVerified           Status = "verified"
	StatusDepartmentReview   Status = "department_review"
	StatusDepartmentApproved Status = "department_approved"
	StatusCoordinatorReview  Status = "coordinator_review"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusPlaced             Status = "placed"
	StatusOngoing            Status = "ongoing"
	StatusCompleted          Status = "completed"
	StatusTerminated         Status = "terminated"
	StatusWithdrawn          Status = "withdrawn"
)

// Actors that may drive a transition. A user maps to one or more actors
// through their roles; admins act as all three.
const (
	ActorStudent     = "student"
	ActorSupervisor  = "supervisor"
	ActorCoordinator = "coordinator"
)

var statusLabels = map[Status]string{
	StatusDraft:              "Draft",
	StatusSubmitted:          "Submitted",
	StatusVerified:           "Verified",
	StatusDepartmentReview:   "Departmental Review",
	StatusDepartmentApproved: "Departmentally Approved",
	StatusCoordinatorReview:  "Coordinator Review",
	StatusApproved:           "Approved",
	StatusRejected:           "Rejected",
	StatusPlaced:             "Placed",
	StatusOngoing:            "Ongoing",
	StatusCompleted:          "Completed",
	StatusTerminated:         "Terminated",
	StatusWithdrawn:          "Withdrawn",
}

// transitions maps a current status to its permitted next statuses and the
// actors allowed to drive each jump.
var transitions = map[Status]map[Status][]string{
	StatusDraft: {
		StatusSubmitted: {ActorStudent},
		StatusWithdrawn: {ActorStudent},
	},
	StatusSubmitted: {
		StatusVerified:  {ActorCoordinator},
		StatusRejected:  {ActorCoordinator},
		StatusWithdrawn: {ActorStudent},
	},
	StatusVerified: {
		StatusDepartmentReview: {ActorCoordinator},
		StatusWithdrawn:        {ActorStudent},
	},
	StatusDepartmentReview: {
		StatusDepartmentApproved: {ActorSupervisor, ActorCoordinator},
		StatusRejected:           {ActorSupervisor, ActorCoordinator},
		StatusWithdrawn:          {ActorStudent},
	},
	StatusDepartmentApproved: {
		StatusCoordinatorReview: {ActorCoordinator},
		StatusWithdrawn:         {ActorStudent},
	},
	StatusCoordinatorReview: {
		StatusApproved:  {ActorCoordinator},
		StatusRejected:  {ActorCoordinator},
		StatusWithdrawn: {ActorStudent},
	},
	StatusApproved: {
		StatusPlaced:    {ActorCoordinator},
		StatusWithdrawn: {ActorStudent},
	},
	StatusPlaced: {
		StatusOngoing: {ActorSupervisor, ActorCoordinator},
	},
	StatusOngoing: {
		StatusCompleted:  {ActorSupervisor, ActorCoordinator},
		StatusTerminated: {ActorSupervisor, ActorCoordinator},
	},
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusWithdrawn, StatusCompleted, StatusTerminated:
		return true
	}
	return false
}

// IsActive reports whether the application holds an attachment slot at the
// host organization.
func (s Status) IsActive() bool {
	return s == StatusPlaced || s == StatusOngoing
}

// CanTransition reports whether from -> to is a permitted jump, for any actor.
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// AllowedActors returns the actors that may drive from -> to; nil when the
// jump itself is not permitted.
func AllowedActors(from, to Status) []string {
	return transitions[from][to]
}

// NextStatuses returns the permitted next statuses out of `from`.
func NextStatuses(from Status) []Status {
	next := make([]Status, 0, len(transitions[from]))
	for to := range transitions[from] {
		next = append(next, to)
	}
	return next
}

// RequiresReason reports whether a transition into `to` must carry a reason.
func (s Status) RequiresReason() bool {
	return s == StatusRejected || s == StatusTerminated
}
