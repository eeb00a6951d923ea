package constant

const (
	UIActionShowConfirmation = "show_confirmation"
	UIActionAsyncProcessing  = "async_processing"

	TaskKindTriage     = "triage"
	TaskKindSpecialist = "specialist"

	ConsultTopicName = "CONSULT_ROUNDS"

	// DefaultRetrieveLimit caps how many reference items a specialist
	// round pulls from the aggregator when RETRIEVAL_LIMIT is unset.
	DefaultRetrieveLimit = 5
)

const (
	StatusProcessing          = "processing"
	StatusWaitingConfirmation = "waiting_confirmation"
	StatusCompleted           = "completed"
	StatusCancelled           = "cancelled"
	StatusUnknown             = "unknown"
)

const (
	DecisionActionConfirm = "confirm"
	DecisionActionCancel  = "cancel"
)
