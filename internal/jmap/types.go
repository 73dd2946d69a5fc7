package jmap

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Invocation is one named method call or response in a batch. On the
// wire it is the triple [name, args, tag].
type Invocation struct {
	Name string
	Args map[string]any
	Tag  string
}

// MarshalJSON encodes the invocation as [name, args, tag].
func (inv Invocation) MarshalJSON() ([]byte, error) {
	args := inv.Args
	if args == nil {
		args = map[string]any{}
	}
	return json.Marshal([]any{inv.Name, args, inv.Tag})
}

// UnmarshalJSON decodes the [name, args, tag] triple. Missing elements
// are tolerated and left zero-valued.
func (inv *Invocation) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("method invocation must be an array: %w", err)
	}
	if len(parts) >= 1 {
		if err := json.Unmarshal(parts[0], &inv.Name); err != nil {
			return fmt.Errorf("invocation name: %w", err)
		}
	}
	if len(parts) >= 2 {
		if err := json.Unmarshal(parts[1], &inv.Args); err != nil {
			return fmt.Errorf("invocation args: %w", err)
		}
	}
	if len(parts) >= 3 {
		if err := json.Unmarshal(parts[2], &inv.Tag); err != nil {
			return fmt.Errorf("invocation tag: %w", err)
		}
	}
	return nil
}

// Request is a batched JMAP API request.
type Request struct {
	Using       []string     `json:"using"`
	MethodCalls []Invocation `json:"methodCalls"`
}

// Validate checks the back-reference invariant: every result reference
// must name a tag declared by an earlier call in the batch.
func (r Request) Validate() error {
	declared := make(map[string]bool, len(r.MethodCalls))
	for _, call := range r.MethodCalls {
		for key, value := range call.Args {
			if !strings.HasPrefix(key, "#") {
				continue
			}
			ref, ok := value.(ResultReference)
			if !ok {
				return fmt.Errorf("call %q: %s is not a result reference", call.Name, key)
			}
			if !declared[ref.ResultOf] {
				return fmt.Errorf("call %q references undeclared tag %q", call.Name, ref.ResultOf)
			}
		}
		declared[call.Tag] = true
	}
	return nil
}

// Response is a batched JMAP API response. Order is not guaranteed to
// match the request.
type Response struct {
	MethodResponses []Invocation `json:"methodResponses"`
}

// Find returns the first method response with the given name, or nil.
func (r Response) Find(name string) *Invocation {
	for i := range r.MethodResponses {
		if r.MethodResponses[i].Name == name {
			return &r.MethodResponses[i]
		}
	}
	return nil
}

// ResultReference points a later call's parameter at an earlier call's
// result, avoiding a second round trip.
type ResultReference struct {
	ResultOf string `json:"resultOf"`
	Name     string `json:"name"`
	Path     string `json:"path"`
}
