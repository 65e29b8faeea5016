package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/gocavy/internal/capability"
)

// PDF typesets circuit with pdflatex and writes the result to path.
// It fails with *capability.UnavailableError when pdflatex is missing.
// Diagnostics go to the logger attached to ctx, if any.
func PDF(ctx context.Context, reg *capability.Registry, circuit, path string) error {
	logger := zerolog.Ctx(ctx)
	prog, err := reg.Path(capability.PDFLatex)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp("", "gocavy-diagram-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	texPath := filepath.Join(dir, "diagram.tex")
	if err := os.WriteFile(texPath, []byte(Document(circuit)), 0o600); err != nil {
		return fmt.Errorf("write latex: %w", err)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, prog,
		"-interaction=nonstopmode", "-halt-on-error",
		"-output-directory", dir, texPath)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = time.Second

	logger.Debug().Str("cmd", prog).Str("tex", texPath).Msg("invoking pdflatex")
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("pdflatex: %w", ctxErr)
		}
		return fmt.Errorf("pdflatex: %w: %s", err, lastLines(out.String(), 5))
	}

	data, err := os.ReadFile(filepath.Join(dir, "diagram.pdf"))
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	logger.Info().Str("path", path).Int("bytes", len(data)).Msg("diagram written")
	return nil
}

// lastLines keeps the tail of pdflatex's log, where the error is.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
