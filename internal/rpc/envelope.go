// Package rpc defines the JSON-RPC 2.0 "tasks/send" envelope used to invoke
// the external agent services, plus the response shapes they are known to
// return. Agents are loose about the response side, so the structs here are
// deliberately tolerant: every field is optional and decoding never fails on
// extra keys.
package rpc

import (
	"otto/internal/utils/id"
)

const (
	Version        = "2.0"
	MethodSendTask = "tasks/send"

	// Defaults carried over from the original deployment. Agents accept any
	// value here; these only matter when a caller does not supply its own.
	DefaultSessionID = "session456"
	DefaultTaskID    = "task124"
)

// TextPart is a single text fragment inside an agent message.
type TextPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message wraps the ordered parts of a user or agent turn.
type Message struct {
	Role  string     `json:"role"`
	Parts []TextPart `json:"parts"`
}

// TaskParams carries the session identifier and the prompt message.
type TaskParams struct {
	SessionID string  `json:"sessionId,omitempty"`
	Message   Message `json:"message"`
}

// TaskRequest is the JSON-RPC request envelope sent to every agent.
type TaskRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Method  string     `json:"method"`
	Params  TaskParams `json:"params"`
}

// NewTaskRequest builds a tasks/send envelope for the given prompt.
// Empty sessionID and taskID fall back to the deployment defaults.
func NewTaskRequest(prompt, sessionID, taskID string) TaskRequest {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if taskID == "" {
		taskID = DefaultTaskID
	}
	return TaskRequest{
		JSONRPC: Version,
		ID:      taskID,
		Method:  MethodSendTask,
		Params: TaskParams{
			SessionID: sessionID,
			Message: Message{
				Role:  "user",
				Parts: []TextPart{{Type: "text", Text: prompt}},
			},
		},
	}
}

// NewTask builds a tasks/send envelope with a freshly generated task ID.
func NewTask(prompt, sessionID string) TaskRequest {
	return NewTaskRequest(prompt, sessionID, id.NewTaskID())
}

// Status holds the terminal message of a completed agent task.
type Status struct {
	State   string   `json:"state,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Artifact is an alternative location agents use for their output.
type Artifact struct {
	Name  string     `json:"name,omitempty"`
	Parts []TextPart `json:"parts,omitempty"`
}

// Result is the payload of a successful agent response.
type Result struct {
	Status    *Status    `json:"status,omitempty"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is the JSON-RPC response envelope returned by agents.
type Response struct {
	JSONRPC string  `json:"jsonrpc,omitempty"`
	ID      any     `json:"id,omitempty"`
	Result  *Result `json:"result,omitempty"`
	Error   *Error  `json:"error,omitempty"`
}
