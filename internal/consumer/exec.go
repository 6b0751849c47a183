package consumer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/askrelay/askrelay/internal/models"
)

// ExecProcessor runs an external command per question: the question text is
// written to stdin and stdout is captured as the raw answer. It stands in
// for the host-page automation layer at its interface boundary.
type ExecProcessor struct {
	Command string
}

// Process implements Processor.
func (e *ExecProcessor) Process(ctx context.Context, q models.Question) (string, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", e.Command)
	cmd.Stdin = strings.NewReader(q.Text)
	cmd.Env = append(os.Environ(), "QUESTION_ID="+strconv.FormatInt(q.ID, 10))

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("process command: %w", err)
	}
	return string(out), nil
}
