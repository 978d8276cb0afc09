// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package clierr defines the structured failures raised while parsing and
// binding command-line arguments.
//
// There are four classes of failure, each with a sentinel that can be matched
// with errors.Is and a concrete type that can be extracted with errors.As:
//
//   - ParseError (ErrParse): the arguments do not fit the command model.
//   - ConversionError (ErrConversion): a raw value could not be converted.
//   - ValidationError (ErrValidation): a validator rejected a value.
//   - ConfigurationError (ErrConfiguration): the model itself is inconsistent.
//
// Only ConfigurationError indicates a programmer error; the others are caused
// by user input.
package clierr

import (
	"errors"
	"fmt"
)

var (
	ErrParse         = errors.New("parse failed")
	ErrConversion    = errors.New("conversion failed")
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNoConverter is wrapped by a ConversionError when no converter could
	// be resolved for a parameter.
	ErrNoConverter = errors.New("no converter found")
)

// ParseCode identifies why parsing failed.
type ParseCode int

const (
	UnknownOption ParseCode = iota + 1
	UnknownCommand
	UnexpectedArgument
	UnexpectedOption
	OptionHasNoValue
	FlagWithValue
	MissingRequired
	MalformedPair
	OptionNameMissing
)

func (c ParseCode) String() string {
	switch c {
	case UnknownOption:
		return "unknown option"
	case UnknownCommand:
		return "unknown command"
	case UnexpectedArgument:
		return "unexpected argument"
	case UnexpectedOption:
		return "unexpected option"
	case OptionHasNoValue:
		return "option has no value"
	case FlagWithValue:
		return "flag cannot have a value"
	case MissingRequired:
		return "missing required parameter"
	case MalformedPair:
		return "malformed pair"
	case OptionNameMissing:
		return "option name missing"
	default:
		return fmt.Sprintf("ParseCode(%d)", int(c))
	}
}

// ParseError is returned when the arguments cannot be matched against the
// command model. Position is -1 when the failure is not tied to a token.
type ParseError struct {
	Code      ParseCode
	Token     string // The offending raw argument, if any
	Position  int    // Index of Token in the raw arguments
	Command   string // The command being parsed when the failure occurred
	Parameter string // The parameter involved, if any
	Msg       string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Token != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Token)
	}
	if e.Parameter != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Parameter)
	}
	return e.Code.String()
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ConversionError is returned when a raw value could not be converted into
// the parameter's declared type.
type ConversionError struct {
	Parameter string // The parameter's display name (e.g., "--port" or "<NAME>")
	Raw       string // The raw input value
	Target    string // The attempted target type
	Err       error  // Underlying cause
}

func (e *ConversionError) Error() string {
	if errors.Is(e.Err, ErrNoConverter) {
		return fmt.Sprintf("%s: no converter found for type %s", e.Parameter, e.Target)
	}
	return fmt.Sprintf("failed to convert %q to %s for %s: %v", e.Raw, e.Target, e.Parameter, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// ValidationError is returned when a parameter validator or a settings
// self-validation hook rejects a value. Parameter is empty for settings-level
// failures.
type ValidationError struct {
	Parameter string
	Message   string
	Err       error
}

func (e *ValidationError) Error() string {
	if e.Parameter == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Parameter, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConfigurationError is returned when the declared model or the capability
// registry is inconsistent.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configf returns a ConfigurationError with a formatted message.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// Validation wraps err as a ValidationError for the named parameter. A nil
// err returns nil; an err that already is a ValidationError is returned
// with the parameter filled in when missing.
func Validation(parameter string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Parameter == "" {
			ve.Parameter = parameter
		}
		return ve
	}
	return &ValidationError{Parameter: parameter, Message: err.Error(), Err: err}
}
