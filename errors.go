// Copyright 2026 Conductor OSS
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package docmorph

import (
	"errors"
	"fmt"
)

// UnsupportedConversionError is returned when no direct transform or hub
// chain connects the requested format pair.
type UnsupportedConversionError struct {
	From Format
	To   Format
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("unsupported conversion %s -> %s", e.From, e.To)
}

// ContainerError is returned when a payload declared as a compound container
// cannot be opened as one.
type ContainerError struct {
	Cause error
}

func (e *ContainerError) Error() string {
	if e.Cause == nil {
		return "invalid container"
	}
	return fmt.Sprintf("invalid container: %v", e.Cause)
}

func (e *ContainerError) Unwrap() error { return e.Cause }

// TemplateNotFoundError is returned when the container blueprint named by
// ConvertOptions.TemplateRef cannot be located.
type TemplateNotFoundError struct {
	Ref string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("container blueprint %q not found", e.Ref)
}

// BindingError is returned when a blueprint placeholder has no bound value.
// Partial binds are never silently accepted.
type BindingError struct {
	Placeholder string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("no value bound for placeholder %q", e.Placeholder)
}

// MarkupError is returned when markup input cannot be parsed at all.
// No partial output accompanies it.
type MarkupError struct {
	Cause error
}

func (e *MarkupError) Error() string {
	return fmt.Sprintf("malformed markup: %v", e.Cause)
}

func (e *MarkupError) Unwrap() error { return e.Cause }

// WriteError is returned when the output destination cannot be written.
type WriteError struct {
	Path  string
	Cause error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Cause)
}

func (e *WriteError) Unwrap() error { return e.Cause }

// StageError wraps a failure with the stage that produced it and the format
// pair in flight. The original cause is preserved, never discarded.
type StageError struct {
	Stage string
	From  Format
	To    Format
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s -> %s): %v", e.Stage, e.From, e.To, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsUnsupportedConversion reports whether the error is an UnsupportedConversionError.
func IsUnsupportedConversion(err error) bool {
	var target *UnsupportedConversionError
	return errors.As(err, &target)
}

// IsInvalidContainer reports whether the error is a ContainerError.
func IsInvalidContainer(err error) bool {
	var target *ContainerError
	return errors.As(err, &target)
}

// IsBindingError reports whether the error is a BindingError.
func IsBindingError(err error) bool {
	var target *BindingError
	return errors.As(err, &target)
}

// IsMalformedMarkup reports whether the error is a MarkupError.
func IsMalformedMarkup(err error) bool {
	var target *MarkupError
	return errors.As(err, &target)
}

// WarningCode identifies a class of non-fatal conversion warning.
type WarningCode string

const (
	// WarnImagesDropped signals embedded images were discarded on read.
	WarnImagesDropped WarningCode = "images-dropped"
	// WarnDegradedRendering signals the minimal fixed-layout backend was used.
	WarnDegradedRendering WarningCode = "degraded-rendering"
	// WarnPartialExtraction signals a best-effort read returned less than
	// the full document.
	WarnPartialExtraction WarningCode = "partial-extraction"
)

// Warning is a non-fatal condition surfaced alongside a successful payload.
// Warnings accumulate across chained hops and never abort a conversion.
type Warning struct {
	Code    WarningCode
	Message string
	Count   int
}

func (w Warning) String() string {
	if w.Count > 0 {
		return fmt.Sprintf("%s: %s (%d)", w.Code, w.Message, w.Count)
	}
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// ImagesDropped builds the warning for n discarded embedded images.
func ImagesDropped(n int) Warning {
	return Warning{Code: WarnImagesDropped, Message: "embedded images dropped", Count: n}
}

// DegradedRendering builds the warning for the placeholder fixed-layout path.
func DegradedRendering() Warning {
	return Warning{Code: WarnDegradedRendering, Message: "no typesetting backend, emitted minimal document"}
}

// PartialExtraction builds the warning for an incomplete best-effort read.
func PartialExtraction(reason string) Warning {
	return Warning{Code: WarnPartialExtraction, Message: reason}
}
