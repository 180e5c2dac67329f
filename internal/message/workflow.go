// =============================================================================
// Vision Connector - Workflow Messages
// =============================================================================
//
// This file collects the warnings and errors produced by a multi step
// operation and reports them as one Message.
//
// =============================================================================

package message

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/ginjaninja78/vision-connector/internal/envelope"
)

// Workflow collects the warnings and errors raised while a job runs so they
// can be reported in one block.
type Workflow struct {
	messages []string
	isError  bool
}

// AddWarning records a message without marking the workflow failed.
func (w *Workflow) AddWarning(format string, args ...interface{}) {
	w.messages = append(w.messages, fmt.Sprintf(format, args...))
}

// AddError records a message and marks the workflow failed.
func (w *Workflow) AddError(format string, args ...interface{}) {
	w.messages = append(w.messages, fmt.Sprintf(format, args...))
	w.isError = true
}

// AddMessageError records msg together with the details of a failed
// response.
func (w *Workflow) AddMessageError(msg string, m *Message) {
	w.AddError("%s\nVision Message Error: Return Code = %s, Description = %s, Detail = %s, Errors = %s",
		msg, m.ReturnCode, m.ReturnDesc, m.Detail, m.GetErrors())
}

// Clear drops all recorded messages.
func (w *Workflow) Clear() {
	w.messages = nil
	w.isError = false
}

// HasErrors reports whether AddError was called since the last Clear.
func (w *Workflow) HasErrors() bool {
	return w.isError
}

// Messages returns the recorded messages in order.
func (w *Workflow) Messages() []string {
	return append([]string(nil), w.messages...)
}

// ErrorText returns all messages, one per line, preceded by a banner when
// any of them is an error.
func (w *Workflow) ErrorText() string {
	var b strings.Builder
	if w.isError {
		b.WriteString("Message contains errors!\n")
	}
	for _, m := range w.messages {
		b.WriteString(m)
		b.WriteString("\n")
	}
	return b.String()
}

// XML renders the messages as an errors element. The warning attribute is
// set when only warnings were recorded.
func (w *Workflow) XML() string {
	root := etree.NewElement("errors")
	if !w.isError {
		root.CreateAttr("warning", "y")
	}
	for _, m := range w.messages {
		root.CreateElement("error").SetText(m)
	}
	return envelope.String(root)
}
