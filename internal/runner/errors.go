package runner

import (
	"fmt"
	"strings"
)

// SetupError reports that a run could not be started. No task has been launched
// when it is returned.
type SetupError struct {
	Issues []string
}

func (e *SetupError) Error() string {
	if len(e.Issues) == 0 {
		return "runner setup failed"
	}
	return fmt.Sprintf("runner setup failed: %s", strings.Join(e.Issues, "; "))
}

// TaskPanicError is the failure recorded for a task whose prober panicked.
type TaskPanicError struct {
	ID    int
	Value any
}

func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.ID, e.Value)
}
