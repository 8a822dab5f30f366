package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/schedule"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportTemplates_DryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "check-in.en.md"),
		[]byte("---\nname: Check-in\nsubject: Hi {{client_name}}\n---\nHello **{{client_name}}**\n"), 0o600))

	out, err := execute(t, "import-templates", "--dry-run", dir)
	require.NoError(t, err)

	var tpls []domain.EmailTemplate
	require.NoError(t, json.Unmarshal([]byte(out), &tpls))
	require.Len(t, tpls, 1)
	require.Equal(t, "check-in", tpls[0].ID)
	require.Equal(t, []string{"client_name"}, tpls[0].Variables)
}

func TestSchedule_InvalidDelay(t *testing.T) {
	_, err := execute(t, "schedule", "--client", "c1", "--template", "t1", "--delay", "fortnight")
	require.ErrorIs(t, err, schedule.ErrInvalidDelay)
}

func TestDispatchOnce_MemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MAIL_DRIVER", "log")

	out, err := execute(t, "--env-file", filepath.Join(t.TempDir(), "none.env"), "dispatch-once")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.EqualValues(t, 0, res["due"])
	require.NotEmpty(t, res["tick_id"])
}
