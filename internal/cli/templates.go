package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/courier/pkg/mailservice"
	"github.com/dmitrymomot/courier/pkg/mailservice/fsstore"
	"github.com/dmitrymomot/courier/pkg/mailservice/pgstore"
)

type sendTemplateResult struct {
	Template string   `json:"template" yaml:"template"`
	To       []string `json:"to" yaml:"to"`
	Success  bool     `json:"success" yaml:"success"`
}

func newSendTemplateCommand(rt *runtimeState) *cobra.Command {
	var (
		p        mailservice.TemplateParams
		data     string
		dataFile string
	)

	cmd := &cobra.Command{
		Use:   "send-template NAME",
		Short: "Send a stored template over a stored or default transport config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p.TemplateName = args[0]

			d, err := parseData(data, dataFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			p.Data = d

			s, err := rt.openStores(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := rt.newService(s).SendEmailWithTemplate(ctx, p); err != nil {
				return err
			}
			return rt.print(sendTemplateResult{Template: p.TemplateName, To: p.To, Success: true})
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&p.To, "to", nil, "Recipient address (repeatable)")
	f.StringVar(&p.ConfigName, "config", "", "Stored transport config name, empty for the default")
	f.StringVar(&p.Subject, "subject", "", "Subject override")
	f.StringVar(&data, "data", "", "Template data as a JSON object")
	f.StringVar(&dataFile, "data-file", "", "File holding template data as a JSON object")

	return cmd
}

func newTemplatesCommand(rt *runtimeState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect and import stored templates",
	}
	cmd.AddCommand(newTemplatesListCommand(rt), newTemplatesImportCommand(rt))
	return cmd
}

func newTemplatesListCommand(rt *runtimeState) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates in a template directory",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			names, err := loadDir(rt.dirOrDefault(dir)).TemplateNames()
			if err != nil {
				return err
			}
			return rt.print(names)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Store directory, default COURIER_STORE_DIR")

	return cmd
}

type importResult struct {
	Imported []string `json:"imported" yaml:"imported"`
}

func newTemplatesImportCommand(rt *runtimeState) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy every template from a directory into PostgreSQL",
		Long: `Reads templates/<name>.html files with their frontmatter and upserts them
into the email_templates table in one transaction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			src := loadDir(rt.dirOrDefault(dir))
			names, err := src.TemplateNames()
			if err != nil {
				return err
			}
			records := make([]mailservice.TemplateRecord, 0, len(names))
			for _, name := range names {
				r, err := src.FindTemplateByName(ctx, name)
				if err != nil {
					return fmt.Errorf("load template %q: %w", name, err)
				}
				records = append(records, *r)
			}

			pool, err := rt.openPostgres(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.New(pool).ImportTemplates(ctx, records); err != nil {
				return err
			}
			return rt.print(importResult{Imported: names})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Store directory, default COURIER_STORE_DIR")

	return cmd
}

func (rt *runtimeState) dirOrDefault(dir string) string {
	if dir != "" {
		return dir
	}
	return rt.cfg.StoreDir
}

func loadDir(dir string) *fsstore.Store {
	return fsstore.New(os.DirFS(dir))
}

func newMigrateCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the PostgreSQL template and config tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := rt.postgresConfig()
			if err != nil {
				return err
			}
			pool, err := pgstore.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.Migrate(ctx, pool, cfg.MigrationsTable, rt.log); err != nil {
				return err
			}
			rt.log.InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}
