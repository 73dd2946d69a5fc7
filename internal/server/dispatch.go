package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/fmbridge/fmbridge/internal/errors"
)

// Envelope is one request line: a command name and its parameters.
type Envelope struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// ErrorBody is the error half of a response envelope. Type carries the
// error kind verbatim.
type ErrorBody struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ResponseEnvelope is one response line. Exactly one of Result and Err
// is set; Command is omitted when the request never named one.
type ResponseEnvelope struct {
	Command string     `json:"command,omitempty"`
	Result  any        `json:"result,omitempty"`
	Err     *ErrorBody `json:"error,omitempty"`
}

func errorEnvelope(command string, err error) ResponseEnvelope {
	body := &ErrorBody{
		Type:    string(errors.KindOf(err)),
		Message: err.Error(),
	}
	if bErr, ok := err.(*errors.BridgeError); ok {
		body.Message = bErr.Message
		body.Hint = bErr.Hint
		body.Details = bErr.Details
	}
	return ResponseEnvelope{Command: command, Err: body}
}

// Dispatcher runs envelopes against a registry. It never lets a handler
// failure escape as anything but an error envelope.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher wires a registry to a logger.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// HandleRequest executes one envelope. Panics in handlers are caught
// and reported as internal errors so a bad command cannot take down the
// serving loop.
func (d *Dispatcher) HandleRequest(ctx context.Context, env Envelope) (resp ResponseEnvelope) {
	if env.Command == "" {
		return errorEnvelope("", errors.NewInvalidRequest("request is missing the command field"))
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panic", "command", env.Command, "panic", r)
			resp = errorEnvelope(env.Command, errors.NewInternal(fmt.Errorf("command %s panicked: %v", env.Command, r)))
		}
	}()

	result, err := d.registry.HandleCall(ctx, env.Command, env.Params)
	if err != nil {
		d.logger.Warn("command failed", "command", env.Command, "error", err)
		return errorEnvelope(env.Command, err)
	}
	return ResponseEnvelope{Command: env.Command, Result: result}
}

// HandleStream processes newline-delimited requests until EOF. Blank
// lines are skipped; a line that is not valid JSON produces an
// InvalidJSON envelope for that line only. Every response is a single
// JSON line flushed immediately.
func (d *Dispatcher) HandleStream(ctx context.Context, r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var env Envelope
		var resp ResponseEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			resp = errorEnvelope("", errors.NewInvalidJSON(fmt.Sprintf("request line is not valid JSON: %v", err)))
		} else {
			resp = d.HandleRequest(ctx, env)
		}

		if err := writeResponse(out, resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func writeResponse(out *bufio.Writer, resp ResponseEnvelope) error {
	encoded, err := json.Marshal(resp)
	if err != nil {
		// Results are plain data shapes; if one still fails to encode,
		// report that instead of dropping the line.
		encoded, _ = json.Marshal(errorEnvelope(resp.Command, errors.NewInternal(err)))
	}
	if _, err := out.Write(append(encoded, '\n')); err != nil {
		return err
	}
	return out.Flush()
}
