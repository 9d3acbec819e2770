package workspace

import (
	"context"
	"errors"

	"github.com/mattjoyce/flowdeck/internal/codec"
)

// RunSubmitter is the slice of the execution backend the store needs.
type RunSubmitter interface {
	SubmitRun(ctx context.Context, req codec.RunRequest) (codec.RunResponse, error)
}

// Dialog is the native file collaborator. Open returns the chosen file's
// contents; Save writes content under a user-chosen path seeded with
// defaultName. Both return ErrCancelled when the user backs out.
type Dialog interface {
	Open(ctx context.Context) (data []byte, path string, err error)
	Save(ctx context.Context, data []byte, defaultName string) (path string, err error)
}

// ErrCancelled is returned by Dialog implementations when the user dismisses
// the dialog. It is not a failure: callers treat it as a quiet no-op.
var ErrCancelled = errors.New("dialog cancelled")
