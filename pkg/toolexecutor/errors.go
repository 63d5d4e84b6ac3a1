package toolexecutor

import (
	"errors"
	"fmt"

	"github.com/harun/slackmcp/pkg/schema"
)

// ErrorKind classifies a failed tool call.
type ErrorKind string

const (
	KindUnknownTool       ErrorKind = "UnknownTool"
	KindInvalidArguments  ErrorKind = "InvalidArguments"
	KindRemoteFailure     ErrorKind = "RemoteFailure"
	KindMalformedResponse ErrorKind = "MalformedResponse"
	KindTransportFailure  ErrorKind = "TransportFailure"
)

// CallerError reports whether the kind is caused by the request itself.
func (k ErrorKind) CallerError() bool {
	return k == KindUnknownTool || k == KindInvalidArguments
}

const unknownErrorMessage = "Unknown error occurred"

// ToolError is the single error value a failed call produces.
type ToolError struct {
	Kind    ErrorKind
	Tool    string
	Message string
	// Failure is set for InvalidArguments and MalformedResponse.
	Failure *schema.ValidationFailure
	// Remote is the error string Slack reported, for RemoteFailure.
	Remote string
	Cause  error
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	if e.Failure != nil {
		return e.Failure
	}
	return e.Cause
}

// MapError converts any error into a *ToolError. Values that already are one
// pass through unchanged; nil maps to nil.
func MapError(err error) *ToolError {
	if err == nil {
		return nil
	}

	var te *ToolError
	if errors.As(err, &te) {
		if te.Message == "" {
			te.Message = unknownErrorMessage
		}
		return te
	}

	var vf *schema.ValidationFailure
	if errors.As(err, &vf) {
		return &ToolError{
			Kind:    KindInvalidArguments,
			Tool:    vf.Schema,
			Message: "Invalid arguments: " + vf.Error(),
			Failure: vf,
			Cause:   err,
		}
	}

	msg := err.Error()
	if msg == "" {
		msg = unknownErrorMessage
	}
	return &ToolError{Kind: KindTransportFailure, Message: msg, Cause: err}
}

// FromPanic converts a recovered panic value into a *ToolError.
func FromPanic(tool string, v any) *ToolError {
	if err, ok := v.(error); ok {
		te := MapError(err)
		if te.Tool == "" {
			te.Tool = tool
		}
		return te
	}
	return &ToolError{
		Kind:    KindTransportFailure,
		Tool:    tool,
		Message: fmt.Sprintf("%s: %v", unknownErrorMessage, v),
	}
}

func unknownTool(name string) *ToolError {
	return &ToolError{Kind: KindUnknownTool, Tool: name, Message: "Unknown tool: " + name}
}

func invalidArguments(tool string, err error) *ToolError {
	var vf *schema.ValidationFailure
	if !errors.As(err, &vf) {
		return &ToolError{Kind: KindInvalidArguments, Tool: tool, Message: fmt.Sprintf("Invalid arguments for %s: %v", tool, err), Cause: err}
	}
	return &ToolError{
		Kind:    KindInvalidArguments,
		Tool:    tool,
		Message: fmt.Sprintf("Invalid arguments for %s: %s", tool, vf.Error()),
		Failure: vf,
	}
}

func remoteFailure(tool, action, remote string) *ToolError {
	if remote == "" {
		remote = "unknown_error"
	}
	return &ToolError{
		Kind:    KindRemoteFailure,
		Tool:    tool,
		Message: fmt.Sprintf("Failed to %s: %s", action, remote),
		Remote:  remote,
	}
}

func transportFailure(tool, action string, err error) *ToolError {
	return &ToolError{
		Kind:    KindTransportFailure,
		Tool:    tool,
		Message: fmt.Sprintf("Failed to %s: %v", action, err),
		Cause:   err,
	}
}

func malformedResponse(tool, action string, err error) *ToolError {
	te := &ToolError{
		Kind:    KindMalformedResponse,
		Tool:    tool,
		Message: fmt.Sprintf("Failed to %s: malformed response: %v", action, err),
		Cause:   err,
	}
	var vf *schema.ValidationFailure
	if errors.As(err, &vf) {
		te.Failure = vf
	}
	return te
}
