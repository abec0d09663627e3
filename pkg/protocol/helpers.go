package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewRegisterMessage creates a one-time registration message.
func NewRegisterMessage(name, grade string) (*Message, error) {
	return NewMessage(TypeRegister, RegisterData{
		Name:  name,
		Grade: grade,
	})
}

// NewStatusMessage creates a periodic status push.
func NewStatusMessage(name, grade string, status Status, focus *FocusData) (*Message, error) {
	return NewMessage(TypeStatus, StatusData{
		Name:   name,
		Grade:  grade,
		Status: status,
		Focus:  focus,
	})
}

// NewRegisteredMessage acknowledges a registration.
func NewRegisteredMessage(subjectID string) (*Message, error) {
	return NewMessage(TypeRegistered, RegisteredData{
		SubjectID: subjectID,
	})
}

// NewNameDuplicateMessage rejects a registration with a user-facing reason.
func NewNameDuplicateMessage(message string) (*Message, error) {
	return NewMessage(TypeNameDuplicate, NameDuplicateData{
		Message: message,
	})
}

// NewAlertMessage creates a dashboard alert.
func NewAlertMessage(message string, severity Severity) (*Message, error) {
	return NewMessage(TypeAlert, AlertData{
		Message:  message,
		Severity: severity,
	})
}

// NewClassModeMessage announces a lesson/break transition.
func NewClassModeMessage(mode string, remainingSeconds int) (*Message, error) {
	return NewMessage(TypeClassMode, ClassModeData{
		Mode:             mode,
		RemainingSeconds: remainingSeconds,
	})
}
