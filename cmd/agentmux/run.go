package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/geniusgordon/agentmux"
	"github.com/geniusgordon/agentmux/acp"
	"github.com/geniusgordon/agentmux/config"
	"github.com/geniusgordon/agentmux/filter"
	"github.com/geniusgordon/agentmux/manager"
)

func newRunCmd() *cobra.Command {
	var (
		cwd            string
		permissionMode string
		binary         string
		extraArgs      []string
		showThoughts   bool
	)

	cmd := &cobra.Command{
		Use:   "run <agent> <prompt>",
		Short: "Spawn an agent, run one prompt turn, stream the output",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			agentType := agentmux.AgentType(args[0])
			prompt := args[1]

			agentCfg := cfg.Agent(agentType)
			if binary == "" {
				binary = agentCfg.Binary
			}
			if permissionMode == "" && agentCfg.PermissionMode != "" {
				permissionMode = string(agentCfg.PermissionMode)
			}
			if len(extraArgs) == 0 {
				extraArgs = agentCfg.ExtraArgs
			}

			if cwd == "" {
				cwd, err = os.Getwd()
				if err != nil {
					return err
				}
			}
			cwd, err = filepath.Abs(cwd)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			return runTurn(cmd.Context(), runParams{
				cfg:            cfg,
				agentType:      agentType,
				prompt:         prompt,
				cwd:            cwd,
				binary:         binary,
				permissionMode: agentmux.PermissionMode(permissionMode),
				extraArgs:      extraArgs,
				showThoughts:   showThoughts,
				out:            cmd.OutOrStdout(),
				mgrOpts: []manager.Option{
					manager.WithLogger(logger),
					manager.WithQueueSize(cfg.QueueSize),
					manager.WithClientOptions(acp.WithGracePeriod(cfg.GracePeriod.Std())),
				},
			})
		},
	}

	cmd.Flags().StringVar(&cwd, "cwd", "", "working directory for the agent (default: current directory)")
	cmd.Flags().StringVar(&permissionMode, "permission-mode", "", "permission mode: default, auto-edit, bypass, plan")
	cmd.Flags().StringVar(&binary, "binary", "", "override the agent executable")
	cmd.Flags().StringArrayVar(&extraArgs, "extra-arg", nil, "extra argument passed to the agent (repeatable)")
	cmd.Flags().BoolVar(&showThoughts, "thoughts", false, "also print agent thought deltas")

	return cmd
}

type runParams struct {
	cfg            *config.Config
	agentType      agentmux.AgentType
	prompt         string
	cwd            string
	binary         string
	permissionMode agentmux.PermissionMode
	extraArgs      []string
	showThoughts   bool
	out            io.Writer
	mgrOpts        []manager.Option
}

// runTurn spawns one client, runs one prompt turn against a fresh session,
// resolving permission requests from the terminal, and disposes the fleet.
func runTurn(ctx context.Context, p runParams) error {
	mgr := manager.New(p.mgrOpts...)
	defer func() {
		disposeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = mgr.Dispose(disposeCtx)
	}()

	mgr.OnEvent(filter.Only(func(ev agentmux.Event) {
		fmt.Fprint(p.out, ev.Content)
	}, agentmux.EventMessageDelta))

	if p.showThoughts {
		mgr.OnEvent(filter.Only(func(ev agentmux.Event) {
			fmt.Fprintf(p.out, "[thought] %s", ev.Content)
		}, agentmux.EventThoughtDelta))
	}

	mgr.OnEvent(filter.Only(func(ev agentmux.Event) {
		if ev.Tool != nil {
			fmt.Fprintf(p.out, "\n[tool] %s (%s)\n", ev.Tool.Title, ev.Tool.Kind)
		}
	}, agentmux.EventToolCall))

	mgr.OnEvent(filter.Only(func(ev agentmux.Event) {
		fmt.Fprintf(p.out, "\n[error] %s\n", ev.Content)
	}, agentmux.EventError))

	approvals := make(chan agentmux.PermissionRequest, 16)
	mgr.OnApproval(func(req agentmux.PermissionRequest) {
		select {
		case approvals <- req:
		default:
			// Terminal operator cannot keep up; leave it pending for
			// `agentmux` API consumers or a later prompt.
		}
	})

	spawnCtx, cancelSpawn := context.WithTimeout(ctx, p.cfg.HandshakeTimeout.Std())
	info, err := mgr.SpawnClient(spawnCtx, manager.SpawnConfig{
		AgentType:      p.agentType,
		CWD:            p.cwd,
		Binary:         p.binary,
		ExtraArgs:      p.extraArgs,
		PermissionMode: p.permissionMode,
	})
	cancelSpawn()
	if err != nil {
		return err
	}

	sess, err := mgr.CreateSession(ctx, info.ID, p.cwd)
	if err != nil {
		return err
	}

	type turnResult struct {
		stop agentmux.StopReason
		err  error
	}
	turnDone := make(chan turnResult, 1)
	go func() {
		stop, err := mgr.SendMessage(ctx, sess.ID, p.prompt)
		turnDone <- turnResult{stop, err}
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for {
		select {
		case req := <-approvals:
			if err := resolveFromTerminal(mgr, req, stdin, p.out); err != nil {
				return err
			}
		case res := <-turnDone:
			if res.err != nil {
				return res.err
			}
			fmt.Fprintf(p.out, "\n[done] %s\n", res.stop)
			return nil
		case <-ctx.Done():
			_ = mgr.Cancel(context.Background(), sess.ID)
			res := <-turnDone
			if res.err != nil {
				return res.err
			}
			fmt.Fprintf(p.out, "\n[done] %s\n", res.stop)
			return nil
		}
	}
}

// resolveFromTerminal prompts the operator for one permission decision.
func resolveFromTerminal(mgr *manager.Manager, req agentmux.PermissionRequest, stdin *bufio.Scanner, out io.Writer) error {
	fmt.Fprintf(out, "\n[permission] %s", req.ToolCall.Title)
	if req.ToolCall.Kind != "" {
		fmt.Fprintf(out, " (%s)", req.ToolCall.Kind)
	}
	fmt.Fprint(out, "\nallow? [y/N] ")

	answer := ""
	if stdin.Scan() {
		answer = strings.ToLower(strings.TrimSpace(stdin.Text()))
	}

	if answer == "y" || answer == "yes" {
		return mgr.Approve(req.ID, "")
	}
	return mgr.Deny(req.ID)
}
