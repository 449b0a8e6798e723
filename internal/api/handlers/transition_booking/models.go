package transition_booking

// TransitionRequest HTTP request model, тело необязательно
type TransitionRequest struct {
	Note *string `json:"note,omitempty"`
}
