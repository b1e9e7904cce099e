package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clairexuu/SWAG-Golf/internal/config"
	"github.com/clairexuu/SWAG-Golf/pkg/events"
	pktNats "github.com/clairexuu/SWAG-Golf/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tailSubject string

// NewEventsCmd creates the events command group.
func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the lifecycle event bus",
	}
	cmd.AddCommand(newEventsTailCmd())
	return cmd
}

func newEventsTailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print lifecycle events as they are published",
		Long: `Attach an ephemeral consumer to the NATS lifecycle stream and
print new events until interrupted. Needs NATS_URL configured.

Examples:
  sketchctl events tail
  sketchctl events tail --subject events.GENERATION_COMPLETED`,
		RunE: runEventsTail,
	}

	cmd.Flags().StringVar(&tailSubject, "subject", "events.>", "subject filter")

	return cmd
}

func runEventsTail(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		return fmt.Errorf("NATS_URL is not configured")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sub.Subscribe(ctx, tailSubject, "", func(_ context.Context, event events.Event) error {
		payload, _ := json.Marshal(event.Payload())
		fmt.Printf("%s  %s  %s\n",
			event.Timestamp().Format(time.RFC3339),
			color.CyanString("%-22s", event.EventType()),
			payload,
		)
		return nil
	})
	if err != nil {
		return err
	}

	color.Yellow("Tailing %s (ctrl-c to stop)", tailSubject)
	<-ctx.Done()
	return nil
}
