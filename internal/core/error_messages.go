// Package core provides the business logic for chart data retrieval.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Document Fetch Errors (FETCH001-FETCH099)
//
// Errors raised while retrieving files from the document store gateway:
//
//	FETCH001 - Not found: The requested file was not found
//	           Action: Verify the container, path, and file name
//	           Patterns: "resource not found"
//
//	FETCH002 - Forbidden: Access to the document store was denied
//	           Action: Check the gateway credentials and folder permissions
//	           Patterns: "access forbidden"
//
//	FETCH003 - Unreachable: The document store could not be reached
//	           Action: Please try again in a few moments
//	           Patterns: "document store unreachable"
//
//	FETCH004 - Exhausted: Every candidate request form was rejected
//	           Action: Quote the file locator to support for gateway diagnosis
//	           Patterns: "candidate request forms failed"
//
//	FETCH005 - Bad response: The gateway returned an unreadable response
//	           Action: Please try again or contact support
//	           Patterns: "malformed response"
//
// # Parse Errors (PARSE001-PARSE099)
//
// Errors raised while parsing fetched file content:
//
//	PARSE001 - Empty file: The file has no content lines
//	           Action: Check that the export produced data rows
//	           Patterns: "empty file"
//
//	PARSE002 - Malformed content: The file content could not be parsed
//	           Action: Re-export the file and try again
//	           Patterns: "malformed content"
//
// # Database Errors (DB001-DB099)
//
// Errors related to the configuration database:
//
//	DB001 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB003 - Deadlock: Database was busy with conflicting operations
//	        Action: Please try again
//	        Patterns: "deadlock"
//
//	DB004 - Store disabled: No database is configured for this deployment
//	        Action: Set DATABASE_URL to enable saved labels and charts
//	        Patterns: "store disabled"
//
// # Data Lookup Errors (DATA001-DATA099)
//
// Errors raised when a requested record does not exist:
//
//	DATA001 - Series not found: No series matches that title in the category
//	          Action: Check the category and series title
//	          Patterns: "series not found"
//
//	DATA002 - Chart not found: The chart definition does not exist
//	          Action: Verify the chart ID
//	          Patterns: "chart not found"
//
// # Rate Limiting (RATE001-RATE099)
//
// Errors related to request throttling:
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
//	RATE002 - Refresh slots busy: Too many refreshes running at once
//	          Action: Please wait for the current refreshes to finish
//	          Patterns: "too many concurrent refreshes"
//
// # Request Errors (REQ001-REQ099)
//
// Errors related to request lifecycle:
//
//	REQ001 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout: Request timed out
//	         Action: Please try again or request less data
//	         Patterns: "context deadline exceeded"
//
//	REQ003 - Timeout: Operation timed out
//	         Action: Please try again later
//	         Patterns: "timeout"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones. The generic "timeout" pattern is deliberately
// last: gateway timeouts arrive wrapped in a fetch error whose text matches
// FETCH003 first.
//
// # For Support Staff
//
// When a user reports an error code:
//  1. Look up the code in this reference
//  2. Check the associated patterns to understand what triggered it
//  3. Review the suggested action to guide the user
//  4. If ERR000, check application logs for the original technical error
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Patterns are matched using strings.Contains, so partial matches work.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the package documentation at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Document Fetch Errors (FETCH001-FETCH005)
	// These errors occur while retrieving files from the document store.
	// =========================================================================
	{
		pattern: "resource not found",
		msg: UserMessage{
			Message: "The requested file was not found",
			Action:  "Verify the container, path, and file name",
			Code:    "FETCH001",
		},
	},
	{
		pattern: "access forbidden",
		msg: UserMessage{
			Message: "Access to the document store was denied",
			Action:  "Check the gateway credentials and folder permissions",
			Code:    "FETCH002",
		},
	},
	{
		pattern: "document store unreachable",
		msg: UserMessage{
			Message: "The document store could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "FETCH003",
		},
	},
	{
		pattern: "candidate request forms failed",
		msg: UserMessage{
			Message: "The document store rejected every request form for this file",
			Action:  "Quote the file locator to support for gateway diagnosis",
			Code:    "FETCH004",
		},
	},
	{
		pattern: "malformed response",
		msg: UserMessage{
			Message: "The document store returned an unreadable response",
			Action:  "Please try again or contact support",
			Code:    "FETCH005",
		},
	},

	// =========================================================================
	// Parse Errors (PARSE001-PARSE002)
	// These errors occur while parsing fetched file content.
	// =========================================================================
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file has no content lines",
			Action:  "Check that the export produced data rows",
			Code:    "PARSE001",
		},
	},
	{
		pattern: "malformed content",
		msg: UserMessage{
			Message: "The file content could not be parsed",
			Action:  "Re-export the file and try again",
			Code:    "PARSE002",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB004)
	// These errors occur when the configuration database misbehaves or is
	// absent.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "store disabled",
		msg: UserMessage{
			Message: "No database is configured for this deployment",
			Action:  "Set DATABASE_URL to enable saved labels and charts",
			Code:    "DB004",
		},
	},

	// =========================================================================
	// Data Lookup Errors (DATA001-DATA002)
	// These errors occur when a requested record does not exist.
	// =========================================================================
	{
		pattern: "series not found",
		msg: UserMessage{
			Message: "No series matches that title in the category",
			Action:  "Check the category and series title",
			Code:    "DATA001",
		},
	},
	{
		pattern: "chart not found",
		msg: UserMessage{
			Message: "The chart definition does not exist",
			Action:  "Verify the chart ID",
			Code:    "DATA002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001-RATE002)
	// These errors occur when request or refresh limits are exceeded.
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "too many concurrent refreshes",
		msg: UserMessage{
			Message: "Too many refreshes running at once",
			Action:  "Please wait for the current refreshes to finish",
			Code:    "RATE002",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ003)
	// These errors occur during the request lifecycle. The bare "timeout"
	// pattern stays last so wrapped gateway timeouts match FETCH003 first.
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again or request less data",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "REQ003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// This is the fallback for unexpected errors. Support staff should check
// application logs for the original technical error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := errors.New("fetch /sites/ops/finance/report.csv: resource not found (4 candidates tried)")
//	msg := MapError(err)
//	// msg.Code == "FETCH001"
//	// msg.Message == "The requested file was not found"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
//
// Example output: "The requested file was not found (Code: FETCH001). Verify the container, path, and file name"
//
// This is the primary function for displaying errors to end users.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
// Use this to decide whether to show the raw error or the mapped user message.
//
// Example:
//
//	if IsUserFacing(err) {
//	    showToUser(FormatUserError(err))
//	} else {
//	    log.Error(err) // Log technical error
//	    showToUser("An error occurred. Please try again.")
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean
// message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// The returned UserError preserves the original technical error for logging via Unwrap(),
// while providing a clean user message via Error().
//
// Returns nil if err is nil.
//
// Example:
//
//	ue := NewUserError(fetchErr)
//	log.Error(ue.Technical)           // Log original error
//	fmt.Println(ue.Error())           // Show "The requested file was not found"
//	fmt.Println(ue.User.Code)         // Show "FETCH001"
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
