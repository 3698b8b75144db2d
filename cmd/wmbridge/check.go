package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/wmbridge/errors"
)

// defaultScenario exercises mapping, focus, property changes and
// destruction with whatever the rc script subscribed.
const defaultScenario = `map foot terminal
map firefox browser
focus 1
title 1 vim
float 2
fullscreen 1
unmap 2
monitor HDMI-A-1
unplug HDMI-A-1
gc
stats`

func newCheckCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [scenario]",
		Short: "Load the rc script, replay a scenario and report leaked references",
		Long: `Load the rc script against a simulated compositor, replay a scenario and
report references still held at shutdown.

The scenario is a file of simulator commands, one per line; "-" reads
standard input. Without an argument a built-in scenario runs. With
registry.fail_on_leak set, leaked references make the command fail.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := ""
			if len(args) == 1 {
				src = args[0]
			}
			return runCheck(rootOpts, src, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	return cmd
}

func runCheck(opts *rootOptions, src string, stdin io.Reader, out io.Writer) error {
	scenario, err := readScenario(src, stdin)
	if err != nil {
		return err
	}

	s, err := newSession(opts.cfg, opts.log)
	if err != nil {
		return err
	}

	failed := 0
	sc := bufio.NewScanner(strings.NewReader(scenario))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintf(out, "> %s\n", line)
		res, err := s.exec(line)
		if res != "" {
			fmt.Fprintln(out, indent(res))
		}
		if err != nil {
			failed++
			fmt.Fprintf(out, "  error: %v\n", err)
		}
	}
	if err := sc.Err(); err != nil {
		s.close()
		return errors.Load(errors.PhaseHost, "scenario", err)
	}

	leaks := s.close()
	fmt.Fprintf(out, "\n%d command(s) failed, %d leaked reference(s)\n", failed, len(leaks))
	for _, e := range leaks {
		fmt.Fprintf(out, "  leak %s refs=%d valid=%t\n", e.ID, e.Refs, e.Valid)
	}

	if len(leaks) > 0 && opts.cfg.Registry.FailOnLeak {
		opts.log.Error("references leaked", zap.Int("count", len(leaks)))
		return errors.Leak("session", len(leaks), false)
	}
	return nil
}

func readScenario(src string, stdin io.Reader) (string, error) {
	switch src {
	case "":
		return defaultScenario, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Load(errors.PhaseHost, "stdin", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return "", errors.Load(errors.PhaseHost, src, err)
		}
		return string(data), nil
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
