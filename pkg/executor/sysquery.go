package executor

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/zen-systems/relay/pkg/classify"
	"github.com/zen-systems/relay/pkg/taskerr"
)

// SystemQueryExecutor answers questions about the local machine.
type SystemQueryExecutor struct {
	now func() time.Time
}

// NewSystemQueryExecutor creates a system query executor.
func NewSystemQueryExecutor() *SystemQueryExecutor {
	return &SystemQueryExecutor{now: time.Now}
}

// TaskType returns the handled task type.
func (e *SystemQueryExecutor) TaskType() classify.TaskType {
	return classify.TaskSystemQuery
}

// Execute inspects the input for the kind of query and answers it from
// local process/OS information.
func (e *SystemQueryExecutor) Execute(_ context.Context, params map[string]string) (string, error) {
	input := strings.ToLower(params[InputParam])

	switch {
	case strings.Contains(input, "battery"):
		return e.battery()
	case strings.Contains(input, "time"):
		return e.now().Format("It is 15:04 on Monday, January 2 2006."), nil
	case strings.Contains(input, "hostname"):
		host, err := os.Hostname()
		if err != nil {
			return "", taskerr.Wrap(taskerr.CodeSystemQuery, err)
		}
		return fmt.Sprintf("This machine is %s.", host), nil
	case strings.Contains(input, "cpu"):
		return fmt.Sprintf("This machine has %d logical CPUs (%s/%s).", runtime.NumCPU(), runtime.GOOS, runtime.GOARCH), nil
	case strings.Contains(input, "memory"):
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return fmt.Sprintf("The assistant process is using %.1f MB of memory.", float64(m.Alloc)/(1024*1024)), nil
	default:
		host, _ := os.Hostname()
		return fmt.Sprintf("%s, %s/%s, %d CPUs, local time %s.",
			host, runtime.GOOS, runtime.GOARCH, runtime.NumCPU(),
			e.now().Format("15:04")), nil
	}
}

// battery reads the capacity from sysfs where available.
func (e *SystemQueryExecutor) battery() (string, error) {
	for _, path := range []string{
		"/sys/class/power_supply/BAT0/capacity",
		"/sys/class/power_supply/BAT1/capacity",
	} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return fmt.Sprintf("Battery is at %s%%.", strings.TrimSpace(string(data))), nil
	}
	return "No battery detected on this machine.", nil
}
