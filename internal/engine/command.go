package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"statusboard/internal/store"
)

const maxStderr = 4 << 10

// CommandRunner runs task.Command as a local process. Each non-empty
// stdout line becomes the job's status message.
type CommandRunner struct {
	Env []string
}

func (c CommandRunner) Run(ctx context.Context, task Task) error {
	if len(task.Command) == 0 {
		return errors.New("command job has no command")
	}

	cmd := exec.CommandContext(ctx, task.Command[0], task.Command[1:]...)
	cmd.Env = append(cmd.Environ(),
		"STATUSBOARD_JOB_ID="+task.Job.ID,
		"STATUSBOARD_OWNER_ID="+task.Job.OwnerID,
	)
	cmd.Env = append(cmd.Env, c.Env...)

	var stderr tailBuffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", task.Command[0], err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.ReplaceAll(scanner.Text(), "\x00", ""))
		if line == "" {
			continue
		}
		task.Job.Update(func(s *store.Status) { s.Message = line })
	}
	if scanner.Err() != nil {
		// keep draining so the process cannot block on a full pipe
		_, _ = io.Copy(io.Discard, stdout)
	}

	if err := cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// tailBuffer keeps the last maxStderr bytes written to it.
type tailBuffer struct {
	b []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.b = append(t.b, p...)
	if len(t.b) > maxStderr {
		t.b = t.b[len(t.b)-maxStderr:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.b) }
