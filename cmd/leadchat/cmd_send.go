package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leadcatalyst/leadchat/pkg/controller"
	"github.com/leadcatalyst/leadchat/pkg/csvexport"
	"github.com/leadcatalyst/leadchat/pkg/termview"
	"github.com/leadcatalyst/leadchat/pkg/webhook"
)

var (
	sendCSV  string
	sendCopy bool
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send one message to the webhook and print the table",
	Long: `Posts the message to the webhook, prints the reply and any rows as a table.

Example:
  leadchat send "find dental clinics in Campinas" --csv leads.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	sender := webhook.NewSenderFromConfig(cfg.Webhook)
	session := controller.NewSession(uuid.NewString(), sender, cfg.Webhook.Timeout.Duration)

	_, sendErr := session.Submit(cmd.Context(), text)
	if errors.Is(sendErr, controller.ErrEmptyMessage) {
		return sendErr
	}

	out := cmd.OutOrStdout()
	styles := termview.DefaultStyles()
	for _, m := range session.Snapshot().Messages {
		fmt.Fprintln(out, termview.Message(m, styles))
	}
	if sendErr != nil {
		return sendErr
	}

	rows := session.Rows()
	if len(rows) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, termview.Table(rows, "Results", styles))
	}

	if sendCSV != "" {
		if err := csvexport.ExportFile(sendCSV, rows); err != nil {
			return err
		}
		if len(rows) > 0 {
			fmt.Fprintf(out, "Saved %d rows to %s\n", len(rows), sendCSV)
		}
	}

	if sendCopy && len(rows) > 0 {
		text, err := csvexport.Encode(rows)
		if err != nil {
			return err
		}
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintf(out, "Copied %d rows to the clipboard\n", len(rows))
	}
	return nil
}
