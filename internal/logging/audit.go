// Package logging also provides audit logging that outputs
// Mangle-queryable facts: structured events the reasoner backend (or any
// downstream analysis) can parse into predicates for declarative
// querying, independent of the free-text category logs above.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// AuditEventType identifies the kind of audit event, each mapping to one
// Mangle predicate.
type AuditEventType string

const (
	// Transition lifecycle -> transition_event/5
	AuditTransStart  AuditEventType = "transition_start"
	AuditTransFinish AuditEventType = "transition_finish"
	AuditTransFail   AuditEventType = "transition_fail"
	AuditTransStop   AuditEventType = "transition_stop"
	AuditTransEnd    AuditEventType = "transition_end"

	// Activity lifecycle -> activity_event/4
	AuditActivityCreated  AuditEventType = "activity_created"
	AuditActivityRetired  AuditEventType = "activity_retired"
	AuditActivityDuplicate AuditEventType = "activity_duplicate"

	// Exogenous queue -> exog_event/4
	AuditExogPush  AuditEventType = "exog_push"
	AuditExogDrain AuditEventType = "exog_drain"

	// History progression -> history_event/3
	AuditHistoryAppend   AuditEventType = "history_append"
	AuditHistoryProgress AuditEventType = "history_progress"

	// Backend dispatch -> backend_event/4
	AuditBackendExecute AuditEventType = "backend_execute"
	AuditBackendPreempt AuditEventType = "backend_preempt"

	// Generic error -> error_event/3
	AuditErrorGeneric  AuditEventType = "error_generic"
	AuditErrorCritical AuditEventType = "error_critical"
)

// AuditEvent is one structured audit log entry.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"`
	EventType  AuditEventType         `json:"event"`
	Category   string                 `json:"cat"`
	Grounding  string                 `json:"grounding,omitempty"`
	Hook       string                 `json:"hook,omitempty"`
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	MangleFact string                 `json:"mangle"`
}

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger scopes audit events to a category.
type AuditLogger struct {
	category Category
}

// InitAudit initializes the audit logging system; a no-op outside debug
// mode.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile != nil {
		return nil
	}
	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))
	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file
	auditFile.WriteString(fmt.Sprintf("# Audit log started at %s\n# Format: Mangle-queryable structured events\n", time.Now().Format(time.RFC3339)))
	return nil
}

func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global, unscoped audit logger.
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithCategory scopes an audit logger to a category.
func AuditWithCategory(category Category) *AuditLogger {
	return &AuditLogger{category: category}
}

func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() || auditFile == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.Category == "" && a.category != "" {
		event.Category = string(a.category)
	}
	event.MangleFact = generateMangleFact(event)

	auditMu.Lock()
	defer auditMu.Unlock()
	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

func generateMangleFact(e AuditEvent) string {
	switch e.EventType {
	case AuditTransStart, AuditTransFinish, AuditTransFail, AuditTransStop, AuditTransEnd:
		return fmt.Sprintf("transition_event(%d, /%s, \"%s\", \"%s\", %v).",
			e.Timestamp, e.EventType, e.Grounding, e.Hook, e.Success)
	case AuditActivityCreated, AuditActivityRetired, AuditActivityDuplicate:
		return fmt.Sprintf("activity_event(%d, /%s, \"%s\", %v).",
			e.Timestamp, e.EventType, e.Grounding, e.Success)
	case AuditExogPush, AuditExogDrain:
		return fmt.Sprintf("exog_event(%d, /%s, \"%s\", %v).",
			e.Timestamp, e.EventType, e.Grounding, e.Success)
	case AuditHistoryAppend, AuditHistoryProgress:
		return fmt.Sprintf("history_event(%d, /%s, %v).", e.Timestamp, e.EventType, e.Success)
	case AuditBackendExecute, AuditBackendPreempt:
		return fmt.Sprintf("backend_event(%d, /%s, \"%s\", %v).",
			e.Timestamp, e.EventType, e.Grounding, e.Success)
	case AuditErrorGeneric, AuditErrorCritical:
		return fmt.Sprintf("error_event(%d, /%s, \"%s\").", e.Timestamp, e.EventType, escapeString(e.Error))
	default:
		return fmt.Sprintf("audit_event(%d, /%s, \"%s\", %v).", e.Timestamp, e.EventType, escapeString(e.Message), e.Success)
	}
}

func escapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/10)
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString("\\\"")
		case '\\':
			b.WriteString("\\\\")
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// TransitionStart logs a transition dispatched to the platform backend.
func (a *AuditLogger) TransitionStart(grounding, hook string) {
	a.Log(AuditEvent{EventType: AuditTransStart, Grounding: grounding, Hook: hook, Success: true,
		Message: fmt.Sprintf("transition started: %s:%s", hook, grounding)})
}

// TransitionEnd logs a transition reaching FINISH, FAIL, STOP or END.
func (a *AuditLogger) TransitionEnd(eventType AuditEventType, grounding, hook string, success bool, durationMs int64) {
	a.Log(AuditEvent{EventType: eventType, Grounding: grounding, Hook: hook, Success: success, DurationMs: durationMs,
		Message: fmt.Sprintf("transition ended: %s:%s (success=%v, %dms)", hook, grounding, success, durationMs)})
}

// ActivityCreated logs a new Activity entering the registry.
func (a *AuditLogger) ActivityCreated(grounding string) {
	a.Log(AuditEvent{EventType: AuditActivityCreated, Grounding: grounding, Success: true,
		Message: fmt.Sprintf("activity created: %s", grounding)})
}

// ActivityRetired logs an Activity leaving the registry upon reaching a
// terminal state.
func (a *AuditLogger) ActivityRetired(grounding string) {
	a.Log(AuditEvent{EventType: AuditActivityRetired, Grounding: grounding, Success: true,
		Message: fmt.Sprintf("activity retired: %s", grounding)})
}

// ActivityDuplicate logs a transition that was a no-op because the
// activity already reflected it.
func (a *AuditLogger) ActivityDuplicate(grounding string) {
	a.Log(AuditEvent{EventType: AuditActivityDuplicate, Grounding: grounding, Success: true,
		Message: fmt.Sprintf("duplicate transition ignored: %s", grounding)})
}

// ExogPush logs an exogenous event entering the queue.
func (a *AuditLogger) ExogPush(grounding string) {
	a.Log(AuditEvent{EventType: AuditExogPush, Grounding: grounding, Success: true,
		Message: fmt.Sprintf("exogenous event pushed: %s", grounding)})
}

// ExogDrain logs the queue being drained, successful or not (e.g.
// blocking drain interrupted by terminate()).
func (a *AuditLogger) ExogDrain(count int, success bool) {
	a.Log(AuditEvent{EventType: AuditExogDrain, Success: success,
		Fields:  map[string]interface{}{"count": count},
		Message: fmt.Sprintf("exogenous queue drained: %d event(s)", count)})
}

// HistoryProgress logs one progress() call folding pending entries.
func (a *AuditLogger) HistoryProgress(foldedCount int, success bool) {
	a.Log(AuditEvent{EventType: AuditHistoryProgress, Success: success,
		Fields:  map[string]interface{}{"folded": foldedCount},
		Message: fmt.Sprintf("history progressed: %d entries folded", foldedCount)})
}

// BackendDispatch logs a platform backend ExecuteActivity/PreemptActivity
// call.
func (a *AuditLogger) BackendDispatch(eventType AuditEventType, grounding string, success bool) {
	a.Log(AuditEvent{EventType: eventType, Grounding: grounding, Success: success,
		Message: fmt.Sprintf("backend dispatch %s: %s", eventType, grounding)})
}

// Error logs a generic or critical error event.
func (a *AuditLogger) Error(err error, critical bool) {
	eventType := AuditErrorGeneric
	if critical {
		eventType = AuditErrorCritical
	}
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	a.Log(AuditEvent{EventType: eventType, Success: false, Error: errMsg,
		Message: fmt.Sprintf("error (critical=%v): %s", critical, errMsg)})
}
