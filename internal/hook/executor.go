package hook

import (
	"context"
	"fmt"
	"os"

	"github.com/Cyclone1070/drift/internal/executor"
)

// maxHookOutput caps captured hook output; it is only used for logging.
const maxHookOutput = 8 * 1024

func (s *System) execute(ctx context.Context, h Hook, env []string) error {
	args := []string{"sh", "-c", h.Command}
	if h.Command == "" {
		path, err := writeScript(h.Script)
		if err != nil {
			return err
		}
		defer os.Remove(path)
		args = []string{path}
	}

	res, err := s.runner.Run(ctx, executor.Spec{
		Args:           args,
		Dir:            s.cwd,
		Env:            env,
		Timeout:        h.Timeout,
		MaxOutputBytes: maxHookOutput,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("exit status %d: %s", res.ExitCode, res.Stderr)
	}
	return nil
}

func writeScript(script string) (string, error) {
	f, err := os.CreateTemp("", "drift-hook-*.sh")
	if err != nil {
		return "", fmt.Errorf("create hook script: %w", err)
	}
	path := f.Name()

	_, werr := f.WriteString("#!/bin/bash\n" + script)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(path, 0o700)
	}
	if werr != nil {
		os.Remove(path)
		return "", fmt.Errorf("write hook script: %w", werr)
	}
	return path, nil
}
