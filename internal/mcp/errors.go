// Package mcp implements the Model Context Protocol (MCP) server for TallyMCP.
package mcp

import (
	"context"
	"errors"
	"fmt"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
)

// Custom MCP error codes for TallyMCP.
const (
	// ErrCodeSolveInProgress indicates a background solve is already running.
	ErrCodeSolveInProgress = -32001

	// ErrCodeMemoryBudget indicates the solve hit its memory budget.
	ErrCodeMemoryBudget = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ErrSolveInProgress indicates a background solve is already running.
var ErrSolveInProgress = errors.New("solve already in progress")

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
// It maps known error types to appropriate MCP error codes and messages.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var te *tallyerr.TallyError
	if errors.As(err, &te) {
		return mapTallyError(te)
	}

	switch {
	case errors.Is(err, ErrSolveInProgress):
		return &MCPError{
			Code:    ErrCodeSolveInProgress,
			Message: "A solve is already running. Poll solve_status or call stop_solve first.",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewMethodNotFoundError creates an error for unknown methods/tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// mapTallyError converts a TallyError to an MCPError.
func mapTallyError(te *tallyerr.TallyError) *MCPError {
	// Build message with suggestion if available
	message := te.Message
	if te.Suggestion != "" {
		message = fmt.Sprintf("%s %s", te.Message, te.Suggestion)
	}

	switch te.Category {
	case tallyerr.CategoryValidation:
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: message,
		}
	case tallyerr.CategoryResource:
		return &MCPError{
			Code:    ErrCodeMemoryBudget,
			Message: message,
		}
	case tallyerr.CategoryIO, tallyerr.CategoryConfig:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: message,
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: message,
		}
	}
}
