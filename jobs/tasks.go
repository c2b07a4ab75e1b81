package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bizledger/bizledger/internal/billing"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReceivablesScan classifies every owner's open parcels.
	TaskReceivablesScan = "receivables:scan"
	// TaskReceivablesRemind delivers an overdue digest for one owner.
	TaskReceivablesRemind = "receivables:remind"

	// ScanCronSpec runs the receivables scan at the top of every hour.
	ScanCronSpec = "@hourly"
)

// ScanPayload tunes a receivables scan. Zero values use the job defaults.
type ScanPayload struct {
	WindowHours int `json:"windowHours,omitempty"`
}

// RemindPayload is the overdue digest for one owner.
type RemindPayload struct {
	Owner         string          `json:"owner"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	OverdueAmount float64         `json:"overdueAmount"`
	Parcels       []billing.Alert `json:"parcels"`
}

// NewScanTask constructs the receivables scan task.
func NewScanTask(payload ScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceivablesScan, data, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}

// NewRemindTask constructs a reminder task. Reminders for the same owner are
// deduplicated within the hour of GeneratedAt.
func NewRemindTask(payload RemindPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceivablesRemind, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.TaskID(remindTaskID(payload)),
		asynq.Retention(time.Hour),
	), nil
}

func remindTaskID(p RemindPayload) string {
	return fmt.Sprintf("remind:%s:%s", p.Owner, p.GeneratedAt.UTC().Format("2006010215"))
}
