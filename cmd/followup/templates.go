package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/followup/internal/templates"
)

var importDryRun bool

var importTemplatesCmd = &cobra.Command{
	Use:   "import-templates <dir>",
	Short: "Import markdown templates from a directory",
	Long: `import-templates reads <key>.<lang>.md files with YAML frontmatter
(name, subject, primary) and creates or updates one template per key.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		tpls, err := templates.Load(os.DirFS(args[0]))
		if err != nil {
			return err
		}
		if importDryRun {
			return printJSON(cmd.OutOrStdout(), tpls)
		}

		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, rt.close(ctx)) }()

		res, err := templates.NewService(rt.store, templates.WithLogger(rt.log)).Import(ctx, tpls)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]int{"created": res.Created, "updated": res.Updated})
	},
}

func init() {
	importTemplatesCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "print parsed templates without storing them")
}
