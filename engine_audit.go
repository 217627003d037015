package credgate

import (
	"context"
	"strconv"
	"time"
)

func (e *Engine) emitAudit(ctx context.Context, event AuditEvent) {
	if e == nil || e.audit == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	e.audit.Emit(ctx, event)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
