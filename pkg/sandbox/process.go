package sandbox

import (
	"context"
	"os/exec"
	"time"

	"github.com/orinrun/orin/internal/orierr"
)

// ProcessGuard wraps subprocess execution with an allow-list of binaries
// and a deadline, mirroring the teacher's command tool
// (pkg/tools/command.go) generalized into a reusable guard so any tool
// that shells out goes through one security choke point instead of
// repeating the check.
type ProcessGuard struct {
	allowedCommands map[string]bool
	timeout         time.Duration
}

// NewProcessGuard builds a guard that only allows the named commands to
// run, each bounded by timeout. An empty allowed list places no
// restriction on which command runs.
func NewProcessGuard(allowed []string, timeout time.Duration) *ProcessGuard {
	set := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		set[c] = true
	}
	return &ProcessGuard{allowedCommands: set, timeout: timeout}
}

// Run executes name with args if name is allow-listed (or the allow-list
// is empty), enforcing the guard's timeout as a context deadline.
func (g *ProcessGuard) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if len(g.allowedCommands) > 0 && !g.allowedCommands[name] {
		return nil, orierr.New(orierr.KindSecurity, "sandbox", "command not allow-listed: "+name)
	}

	timeout := g.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if ctx.Err() == context.DeadlineExceeded {
		return out, orierr.Wrap(orierr.KindTimeout, "sandbox", orierr.ErrTimeout)
	}
	if err != nil {
		return out, orierr.Wrap(orierr.KindComponent, "sandbox", err)
	}
	return out, nil
}
