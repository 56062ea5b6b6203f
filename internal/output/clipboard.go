package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/atotto/clipboard"
)

// SystemClipboard uses the platform clipboard (xclip/xsel/wl-clipboard, pbcopy, Win32).
type SystemClipboard struct{}

func (SystemClipboard) Read(context.Context) (string, error) {
	if clipboard.Unsupported {
		return "", errors.New("no clipboard utility available")
	}
	return clipboard.ReadAll()
}

func (SystemClipboard) Write(_ context.Context, text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// CommandClipboard shells out to user-configured commands.
type CommandClipboard struct {
	WriteArgv []string
	ReadArgv  []string
}

func (c CommandClipboard) Read(ctx context.Context) (string, error) {
	if len(c.ReadArgv) == 0 {
		return "", errors.New("clipboard_read_cmd is not configured")
	}
	return runCommandOutput(ctx, c.ReadArgv)
}

func (c CommandClipboard) Write(ctx context.Context, text string) error {
	return runCommandWithInput(ctx, c.WriteArgv, text)
}

// CommandPaste triggers paste through an external command such as wtype or xdotool.
type CommandPaste struct {
	Argv []string
}

func (c CommandPaste) Paste(ctx context.Context) error {
	return runCommandWithInput(ctx, c.Argv, "")
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if input != "" {
		cmd.Stdin = bytes.NewBufferString(input)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return fmt.Errorf("run %s: %w: %s", argv[0], err, msg)
		}
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}

func runCommandOutput(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("run %s: %w", argv[0], err)
	}
	return string(out), nil
}
