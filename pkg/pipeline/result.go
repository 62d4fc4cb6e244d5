package pipeline

import (
	"context"
	"errors"

	"github.com/automailhq/automail/pkg/compose"
	"github.com/automailhq/automail/pkg/fetch"
	"github.com/automailhq/automail/pkg/locate"
	"github.com/automailhq/automail/pkg/remote"
)

// Kind classifies a failed stage.
type Kind string

const (
	// KindConnection: endpoint unreachable or rejected credentials/path.
	KindConnection Kind = "connection"

	// KindNotFound: no artifact matches the expected naming convention.
	KindNotFound Kind = "not_found"

	// KindTransfer: listing or fetch I/O fault.
	KindTransfer Kind = "transfer"

	// KindRender: document unreadable, corrupted, or resources exhausted
	// during rasterization.
	KindRender Kind = "render"

	// KindTransmission: relay unreachable, auth rejected, or send refused.
	KindTransmission Kind = "transmission"

	// KindTimeout: the job deadline elapsed before completion.
	KindTimeout Kind = "timeout"

	// KindInternal: anything that escapes the taxonomy above.
	KindInternal Kind = "internal"

	// KindSkipped: a trigger arrived while another job held the run guard.
	// Skipped triggers are dropped, not deferred.
	KindSkipped Kind = "skipped"
)

// Outcome is the terminal result of one job run.
//
// A failed Outcome carries the failure kind and a human-readable message; the
// control surface shows only the message, the kind exists for callers that
// need to branch.
type Outcome struct {
	Success bool
	Kind    Kind
	Message string
}

func succeeded(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

func failed(err error) Outcome {
	return Outcome{Success: false, Kind: classify(err), Message: err.Error()}
}

// classify maps sentinel errors from the stage packages onto failure kinds.
func classify(err error) Kind {
	switch {
	case remote.IsUnreachable(err), remote.IsAuthFailed(err), remote.IsPathNotFound(err):
		return KindConnection
	case errors.Is(err, locate.ErrNoMatch), errors.Is(err, fetch.ErrNoPrimary):
		return KindNotFound
	case errors.Is(err, compose.ErrDocumentNotFound),
		errors.Is(err, compose.ErrDocumentInvalid),
		errors.Is(err, compose.ErrRenderExhausted):
		return KindRender
	case errors.Is(err, compose.ErrTransmission):
		return KindTransmission
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	case remote.IsNotFound(err), remote.IsTransfer(err):
		return KindTransfer
	default:
		return KindInternal
	}
}
