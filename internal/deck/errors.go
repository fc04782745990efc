package deck

import "fmt"

// AssemblyError represents a failure to assemble or write the deck artifact.
// Assembly failures are fatal for the job and are not retried.
type AssemblyError struct {
	Message string
	Cause   error
}

func (e *AssemblyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("assembly error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("assembly error: %s", e.Message)
}

func (e *AssemblyError) Unwrap() error {
	return e.Cause
}

// TemplateError represents a failure to render one of the document templates.
type TemplateError struct {
	Part    string
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error in %s: %s: %v", e.Part, e.Message, e.Cause)
	}
	return fmt.Sprintf("template error in %s: %s", e.Part, e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}
