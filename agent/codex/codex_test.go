package codex

import (
	"testing"

	"github.com/geniusgordon/agentmux"
)

func TestSpawnSpec(t *testing.T) {
	a := New(WithBinary("/usr/local/bin/codex-acp"))
	spec, err := a.SpawnSpec("/work", nil)
	if err != nil {
		t.Fatalf("SpawnSpec: %v", err)
	}
	if spec.Command != "/usr/local/bin/codex-acp" {
		t.Errorf("command = %q", spec.Command)
	}
	if len(spec.Args) != 0 {
		t.Errorf("args = %v, want none", spec.Args)
	}
}

func TestPermissionArgs(t *testing.T) {
	a := New()

	if args, err := a.PermissionArgs(agentmux.PermissionDefault); err != nil || args != nil {
		t.Errorf("default: %v, %v", args, err)
	}
	if args, err := a.PermissionArgs(agentmux.PermissionAutoEdit); err != nil || len(args) != 1 || args[0] != "--full-auto" {
		t.Errorf("auto-edit: %v, %v", args, err)
	}
	if args, err := a.PermissionArgs(agentmux.PermissionBypass); err != nil || len(args) != 1 || args[0] != "--dangerously-bypass-approvals-and-sandbox" {
		t.Errorf("bypass: %v, %v", args, err)
	}
	if _, err := a.PermissionArgs(agentmux.PermissionPlan); err == nil {
		t.Error("plan: want unsupported error")
	}
}
