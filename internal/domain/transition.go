package domain

// Transition names a guarded state change on an application or claim.
type Transition string

const (
	TransitionSubmit         Transition = "submit"
	TransitionAssignAgent    Transition = "assignAgent"
	TransitionDecide         Transition = "decide"
	TransitionConfirmPayment Transition = "confirmPayment"
	TransitionFileClaim      Transition = "fileClaim"
	TransitionDecideClaim    Transition = "decideClaim"
)
