// Package notify surfaces transient register messages to the cashier.
// Messages carry a severity so sinks can distinguish a discount warning
// from a committed-sale confirmation.
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/logger"
)

// Notifier receives register messages. Implementations must be safe to
// call from the checkout goroutine.
type Notifier interface {
	Notify(severity pkgerrors.Severity, message string)
}

// NotifyError maps a failure onto its register message. Coded errors use
// their taxonomy severity and message; anything else is reported as an
// internal error without leaking the cause.
func NotifyError(n Notifier, err error) {
	if n == nil || err == nil {
		return
	}
	if coded := pkgerrors.As(err); coded != nil {
		meta := pkgerrors.MetadataFor(coded.Code())
		n.Notify(meta.Severity, coded.Message())
		return
	}
	meta := pkgerrors.MetadataFor(pkgerrors.CodeInternal)
	n.Notify(meta.Severity, meta.PublicMessage)
}

// Writer prints severity-tagged lines to an output stream.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
	log *logger.Logger
}

// NewWriter builds a notifier over the given stream. A nil logger
// disables the audit trail but not the display.
func NewWriter(out io.Writer, log *logger.Logger) *Writer {
	return &Writer{out: out, log: log}
}

// Notify writes the message with an uppercase severity tag.
func (w *Writer) Notify(severity pkgerrors.Severity, message string) {
	w.mu.Lock()
	fmt.Fprintf(w.out, "[%s] %s\n", strings.ToUpper(string(severity)), message)
	w.mu.Unlock()

	if w.log == nil {
		return
	}
	ctx := context.Background()
	switch severity {
	case pkgerrors.SeverityError:
		w.log.Error(ctx, message, nil)
	case pkgerrors.SeverityWarning:
		w.log.Warn(ctx, message)
	default:
		w.log.Info(ctx, message)
	}
}
