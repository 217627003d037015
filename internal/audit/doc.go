// Package audit defines the audit event model and the sink implementations
// the engine dispatches to. Sinks must tolerate concurrent Emit calls; the
// dispatcher serializes delivery but sinks are part of the public surface
// and callers may emit into them directly in tests.
package audit
