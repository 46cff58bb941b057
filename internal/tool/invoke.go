package tool

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Invocation never returns an error to the caller. Missing arguments, a
// value that does not decode into the function's parameter struct, or the
// function itself failing all become a readable string that is fed back to
// the model as the tool's result, so the model can see and potentially
// recover from its own malformed call.

func invokeError(fnName string, detail any) string {
	return fmt.Sprintf("Error during '%s' %v", fnName, detail)
}

// InvokeNoArgs calls a parameterless tool function and renders its result
// or failure as the tool-response string.
func InvokeNoArgs(fnName string, fn func() (string, error)) string {
	result, err := fn()
	if err != nil {
		slog.Error("tool invocation failed", slog.String("tool", fnName), slog.Any("error", err))
		return invokeError(fnName, err)
	}
	slog.Info("tool invoked", slog.String("tool", fnName), slog.String("result", result))
	return result
}

// Invoke decodes the (already de-stringified) arguments value into the
// function's parameter struct and calls it. Arguments must be present for
// this contract; use InvokeNoArgs for parameterless tools.
func Invoke[A any](fnName string, args json.RawMessage, fn func(A) (string, error)) string {
	if args == nil {
		slog.Error("tool invocation failed", slog.String("tool", fnName), slog.String("error", "missing arguments"))
		return invokeError(fnName, "missing tool arguments")
	}

	var parsed A
	if err := json.Unmarshal(args, &parsed); err != nil {
		slog.Error("tool arguments failed to decode", slog.String("tool", fnName), slog.Any("error", err))
		return invokeError(fnName, err)
	}

	result, err := fn(parsed)
	if err != nil {
		slog.Error("tool invocation failed", slog.String("tool", fnName), slog.Any("error", err))
		return invokeError(fnName, err)
	}
	slog.Info("tool invoked", slog.String("tool", fnName), slog.String("result", result))
	return result
}
