package tarsnap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

const DefaultBinary = "tarsnap"

// Command runs the tarsnap binary.
type Command struct {
	binary  string
	keyFile string
}

func NewCommand(binary, keyFile string) *Command {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Command{binary: binary, keyFile: keyFile}
}

// NewFactory returns a Factory building Commands for binary.
func NewFactory(binary string) Factory {
	return func(keyFile string) Client {
		return NewCommand(binary, keyFile)
	}
}

func (c *Command) ListArchives(ctx context.Context) ([]string, error) {
	var stdout bytes.Buffer
	if err := c.run(ctx, &stdout, "--list-archives", "--keyfile", c.keyFile); err != nil {
		return nil, err
	}
	return SplitNames(stdout.String()), nil
}

func (c *Command) Fsck(ctx context.Context, cacheDir string) error {
	return c.run(ctx, io.Discard, "--fsck", "--keyfile", c.keyFile, "--cachedir", cacheDir)
}

func (c *Command) Delete(ctx context.Context, name, cacheDir string) error {
	return c.run(ctx, io.Discard, "-d", "--keyfile", c.keyFile, "--cachedir", cacheDir, "-f", name)
}

func (c *Command) run(ctx context.Context, stdout io.Writer, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s %s: %w: %s", c.binary, args[0], err, msg)
		}
		return fmt.Errorf("%s %s: %w", c.binary, args[0], err)
	}
	return nil
}
