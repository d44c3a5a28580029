package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lobo-cli/lobo/pkg/permission"
	"github.com/lobo-cli/lobo/pkg/registry"
)

func shellTools(opts Options) []registry.Spec {
	return []registry.Spec{
		{
			Name:        "execute_command",
			Description: "Execute a shell command (PowerShell on Windows, sh on Linux/macOS). Subject to allowlist/denylist filtering.",
			Tier:        permission.RiskModifying,
			Category:    registry.CategoryShell,
			Parameters: objectSchema(map[string]interface{}{
				"command": stringProp("Command to execute"),
			}, "command"),
			Handler: executeCommandHandler(opts.CommandTimeout),
		},
		{
			Name:        "get_system_info",
			Description: "Get system information (OS, architecture, CPU count, hostname, working directory).",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryShell,
			Parameters:  objectSchema(map[string]interface{}{}),
			Handler:     getSystemInfo,
		},
	}
}

func executeCommandHandler(timeout time.Duration) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
		command := strings.TrimSpace(stringArg(args, "command"))
		if command == "" {
			return nil, fmt.Errorf("command is required")
		}

		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var cmd *exec.Cmd
		if runtime.GOOS == "windows" {
			cmd = exec.CommandContext(runCtx, "powershell", "-NoProfile", "-Command", command)
		} else {
			cmd = exec.CommandContext(runCtx, "sh", "-c", command)
		}

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		log.Debug().Str("command", command).Msg("Executing shell command")

		start := time.Now()
		err := cmd.Run()
		duration := time.Since(start)

		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("command timed out after %s", timeout)
		}

		exitCode := 0
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				return nil, fmt.Errorf("failed to run command: %w", err)
			}
		}

		summary := fmt.Sprintf("Command exited %d in %s", exitCode, duration.Round(time.Millisecond))

		return &registry.HandlerResult{
			Payload: map[string]interface{}{
				"command":   command,
				"stdout":    stdout.String(),
				"stderr":    stderr.String(),
				"exit_code": exitCode,
				"success":   exitCode == 0,
			},
			Summary: summary,
		}, nil
	}
}

func getSystemInfo(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "unknown"
	}

	payload := map[string]interface{}{
		"os":          runtime.GOOS,
		"arch":        runtime.GOARCH,
		"cpus":        runtime.NumCPU(),
		"hostname":    hostname,
		"working_dir": cwd,
		"go_version":  runtime.Version(),
	}

	return &registry.HandlerResult{
		Payload: payload,
		Summary: fmt.Sprintf("%s/%s, %d CPUs, host %s", runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), hostname),
	}, nil
}
