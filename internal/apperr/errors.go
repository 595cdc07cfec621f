// Package apperr provides the error taxonomy shared by the routers, clients
// and the Lambda handler.
package apperr

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the top-level error class. Callers branch on Kind; Code refines it.
type Kind string

const (
	KindValidation    Kind = "ValidationError"
	KindConfiguration Kind = "ConfigurationError"
	KindImageDecode   Kind = "ImageDecodeError"
	KindUpstream      Kind = "UpstreamError"
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeUnsupportedLanguage     Code = "UNSUPPORTED_LANGUAGE"
	CodeUnsupportedLanguagePair Code = "UNSUPPORTED_LANGUAGE_PAIR"
	CodeUnsupportedStyle        Code = "UNSUPPORTED_STYLE"
	CodeInvalidInput            Code = "INVALID_INPUT"
	CodeInputTooLarge           Code = "INPUT_TOO_LARGE"

	CodeTemplateNotFound  Code = "TEMPLATE_NOT_FOUND"
	CodeMissingCredential Code = "MISSING_CREDENTIAL"
	CodeMissingSetting    Code = "MISSING_SETTING"

	CodeImageDecodeFailed Code = "IMAGE_DECODE_FAILED"

	CodeCompletionFailed Code = "COMPLETION_FAILED"
	CodeVisionFailed     Code = "VISION_FAILED"
)

// Error is a structured application error.
type Error struct {
	Kind      Kind      `json:"kind"`
	Code      Code      `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	Err       error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s[%s]: %s (%s)", e.Kind, e.Code, e.Message, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, code Code, message, details string, cause error) *Error {
	return &Error{
		Kind:      kind,
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Err:       cause,
	}
}

// NewUnsupportedLanguageError reports a language outside the supported set.
func NewUnsupportedLanguageError(lang string, supported []string) *Error {
	return newError(KindValidation, CodeUnsupportedLanguage,
		fmt.Sprintf("unsupported language: %q", lang),
		"supported: "+strings.Join(supported, ", "), nil)
}

// NewUnsupportedLanguagePairError reports two supported languages with no
// template between them.
func NewUnsupportedLanguagePairError(source, target string) *Error {
	return newError(KindValidation, CodeUnsupportedLanguagePair,
		fmt.Sprintf("no translation template for %s -> %s", source, target),
		"only Korean-anchored pairs are available", nil)
}

// NewUnsupportedStyleError reports an unknown style; the message lists the
// supported styles.
func NewUnsupportedStyleError(style string, supported []string) *Error {
	return newError(KindValidation, CodeUnsupportedStyle,
		fmt.Sprintf("unsupported style: %q (supported: %s)", style, strings.Join(supported, ", ")),
		"", nil)
}

// NewInvalidInputError reports malformed caller input.
func NewInvalidInputError(details string) *Error {
	return newError(KindValidation, CodeInvalidInput, "invalid input", details, nil)
}

// NewInputTooLargeError reports input over the configured token budget.
func NewInputTooLargeError(tokens, limit int) *Error {
	return newError(KindValidation, CodeInputTooLarge, "input text is too large",
		fmt.Sprintf("estimated tokens: %d, limit: %d", tokens, limit), nil)
}

// NewTemplateNotFoundError reports a template key with no registered template.
func NewTemplateNotFoundError(key string) *Error {
	return newError(KindConfiguration, CodeTemplateNotFound, "template not found in registry",
		"templateKey: "+key, nil)
}

// NewMissingCredentialError reports an unset credential.
func NewMissingCredentialError(name string) *Error {
	return newError(KindConfiguration, CodeMissingCredential, "backend credential is not configured",
		"credential: "+name, nil)
}

// NewMissingSettingError reports a required setting left empty.
func NewMissingSettingError(name string) *Error {
	return newError(KindConfiguration, CodeMissingSetting, "required setting is empty",
		"setting: "+name, nil)
}

// NewImageDecodeError reports bytes that are not a decodable image.
func NewImageDecodeError(err error) *Error {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(KindImageDecode, CodeImageDecodeFailed, "could not process image", details, err)
}

// NewCompletionFailedError wraps a failed chat completion call.
func NewCompletionFailedError(err error) *Error {
	return newError(KindUpstream, CodeCompletionFailed, "completion request failed", err.Error(), err)
}

// NewVisionFailedError wraps a failed vision call.
func NewVisionFailedError(err error) *Error {
	return newError(KindUpstream, CodeVisionFailed, "vision request failed", err.Error(), err)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return ""
}

// CodeOf returns the Code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
