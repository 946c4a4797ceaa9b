package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/courier/pkg/mailer"
)

func newSendCommand(rt *runtimeState) *cobra.Command {
	var (
		msg          mailer.Message
		templateFile string
		data         string
		dataFile     string
		attach       []string
		tags         []string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message through the configured transport",
		Example: `  courier send --to user@example.com --subject "Order {{.id}}" \
    --template-file receipt.html --data '{"id":"A-1001","total":42.5}' \
    --attach ./invoice.pdf --attach s3://billing/terms.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if templateFile != "" {
				b, err := readInput(templateFile, cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read template: %w", err)
				}
				msg.TemplateHTML = string(b)
			}
			d, err := parseData(data, dataFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			msg.TemplateData = d
			for _, p := range attach {
				msg.Attachments = append(msg.Attachments, attachmentFromPath(p))
			}
			if len(tags) > 0 {
				msg.Tags = mailer.SimpleTags(tags...)
			}

			m, err := rt.newMailer(ctx)
			if err != nil {
				return err
			}
			defer m.Close()

			res := m.Send(ctx, msg)
			if err := rt.print(res); err != nil {
				return err
			}
			if !res.Success {
				return res.Err
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringSliceVar((*[]string)(&msg.To), "to", nil, "Recipient address (repeatable)")
	f.StringSliceVar((*[]string)(&msg.CC), "cc", nil, "Carbon copy address (repeatable)")
	f.StringSliceVar((*[]string)(&msg.BCC), "bcc", nil, "Blind carbon copy address (repeatable)")
	f.StringVar(&msg.Subject, "subject", "", "Subject, may contain template actions")
	f.StringVar(&msg.Text, "text", "", "Plain text body")
	f.StringVar(&msg.HTML, "html", "", "HTML body")
	f.StringVar(&templateFile, "template-file", "", "HTML template file, - for stdin")
	f.StringVar(&data, "data", "", "Template data as a JSON object")
	f.StringVar(&dataFile, "data-file", "", "File holding template data as a JSON object")
	f.StringVar(&msg.From, "from", "", "Sender address")
	f.StringVar(&msg.DisplayName, "display-name", "", "Sender display name")
	f.StringVar(&msg.ReplyTo, "reply-to", "", "Reply-To address")
	f.StringToStringVar(&msg.Headers, "header", nil, "Extra header as key=value (repeatable)")
	f.StringSliceVar(&attach, "attach", nil, "Attachment path or URL: file, http(s) or s3 (repeatable)")
	f.StringSliceVar(&tags, "tag", nil, "Provider tag (repeatable)")

	return cmd
}

// attachmentFromPath names the attachment after the last path segment.
func attachmentFromPath(p string) mailer.Attachment {
	name := filepath.Base(p)
	if u, err := url.Parse(p); err == nil && u.Scheme != "" && u.Path != "" {
		name = path.Base(u.Path)
	}
	return mailer.Attachment{Filename: name, Path: p}
}

func newSendBulkCommand(rt *runtimeState) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "send-bulk",
		Short: "Send a JSON array of messages concurrently",
		Long: `Reads a JSON array of messages and sends them concurrently through one
transport. Results are printed in input order. The command fails when any
message fails, after all of them have been attempted.

Recipient fields take a string or an array. Attachment content is plain
text unless "encoding" is "base64".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			raw, err := readInput(file, cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read messages: %w", err)
			}
			var msgs []mailer.Message
			if err := json.Unmarshal(raw, &msgs); err != nil {
				return fmt.Errorf("messages must be a JSON array: %w", err)
			}

			m, err := rt.newMailer(ctx)
			if err != nil {
				return err
			}
			defer m.Close()

			results := m.SendBulk(ctx, msgs)
			if err := rt.print(results); err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if !r.Success {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d messages failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with messages, - for stdin")

	return cmd
}
