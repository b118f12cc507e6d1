package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/secret-dns/interfaces"
)

// Decoder fetches, decrypts and decodes the output of confirmed tasks.
type Decoder struct {
	backend interfaces.TaskBackend
	codec   interfaces.ArgumentCodec
	log     *slog.Logger
}

func NewDecoder(backend interfaces.TaskBackend, codec interfaces.ArgumentCodec, log *slog.Logger) *Decoder {
	return &Decoder{backend: backend, codec: codec, log: log}
}

// FetchAndDecode returns the task output decoded as returnType. Results of
// failed executions are never decrypted or decoded.
func (d *Decoder) FetchAndDecode(ctx context.Context, handle *interfaces.TaskHandle, returnType interfaces.TypeTag) (any, error) {
	if handle.ChainStatus != interfaces.ChainStatusConfirmed {
		return nil, fmt.Errorf("%w: task %s is %s", interfaces.ErrNotConfirmed, handle.ID.Hex(), handle.ChainStatus)
	}

	result, err := d.backend.GetResult(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("could not fetch result of task %s: %w", handle.ID.Hex(), err)
	}

	if result.ExecutionStatus != interfaces.ExecutionStatusSuccess {
		return nil, fmt.Errorf("%w: task %s finished with %s", interfaces.ErrExecutionFailed, handle.ID.Hex(), result.ExecutionStatus)
	}

	plaintext, err := d.backend.Decrypt(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypting task %s: %w", interfaces.ErrMalformedResult, handle.ID.Hex(), err)
	}

	value, err := d.codec.Decode(returnType, plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding task %s as %s: %w", interfaces.ErrMalformedResult, handle.ID.Hex(), returnType, err)
	}

	d.log.Debug("Decoded task result",
		slog.String("task", handle.ID.Hex()),
		slog.String("type", string(returnType)))
	return value, nil
}
