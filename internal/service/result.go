// File: internal/service/result.go
package service

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is the uniform outcome envelope every operation returns, on every
// transport. Exactly one Result per invocation; partial progress is
// reported through counts inside Data, never as extra envelopes.
type Result struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// OK wraps a payload in a successful Result.
func OK(data interface{}) *Result {
	return &Result{Success: true, Data: data}
}

// OKMsg wraps a payload with a human-readable message.
func OKMsg(data interface{}, msg string) *Result {
	return &Result{Success: true, Data: data, Message: msg}
}

// Fail converts an error into a failed Result, preserving the OpError kind
// and context when present.
func Fail(err error) *Result {
	res := &Result{Success: false, Message: err.Error(), Code: string(KindInternal)}
	var opErr *OpError
	if errors.As(err, &opErr) {
		res.Code = string(opErr.Kind)
		res.Context = opErr.Context
	}
	return res
}
