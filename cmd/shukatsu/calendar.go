package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
	"github.com/hiro4859/syukatsu-base-v2/internal/calendar"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

// syncTimeout bounds one sync cycle.
const syncTimeout = 2 * time.Minute

var calendarFlagWatch time.Duration

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Google Calendar export",
}

var calendarSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy upcoming deadlines into Google Calendar",
	Long: `Copy every open deadline into Google Calendar as an all-day event.
Events are matched by deadline key, so running sync again updates them in place.

The first run opens the Google consent flow and caches the token.

Examples:
  shukatsu calendar sync
  shukatsu calendar sync --watch 30m`,
	RunE: runCalendarSync,
}

func init() {
	calendarSyncCmd.Flags().DurationVarP(&calendarFlagWatch, "watch", "w", 0, "Keep syncing at this interval")
	calendarCmd.AddCommand(calendarSyncCmd)
	rootCmd.AddCommand(calendarCmd)
}

func runCalendarSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scope, err := rt.scope(ctx)
	if err != nil {
		return err
	}
	if scope.Demo {
		return store.ErrLoginRequired
	}

	google := &auth.GoogleClient{
		CredentialsFile: rt.cfg.GoogleCredentialsFile,
		TokenFile:       rt.cfg.GoogleTokenFile,
		In:              cmd.InOrStdin(),
		Out:             cmd.ErrOrStderr(),
	}
	httpClient, err := google.CalendarClient(ctx)
	if err != nil {
		return err
	}
	client, err := calendar.New(ctx, httpClient, rt.cfg.CalendarID, rt.log)
	if err != nil {
		return err
	}
	svc := services.NewCalendarService(services.NewDeadlineService(rt.log, rt.clock), client, rt.log)

	if err := syncOnce(ctx, cmd.OutOrStdout(), svc, scope); err != nil || calendarFlagWatch <= 0 {
		return err
	}

	ticker := time.NewTicker(calendarFlagWatch)
	defer ticker.Stop()
	rt.log.WithField("interval", calendarFlagWatch).Info("calendar watcher started")
	for {
		select {
		case <-ctx.Done():
			rt.log.Info("calendar watcher stopped")
			return nil
		case <-ticker.C:
			if err := syncOnce(ctx, cmd.OutOrStdout(), svc, scope); err != nil {
				rt.log.WithError(err).Warn("calendar sync failed, retrying next cycle")
			}
		}
	}
}

func syncOnce(ctx context.Context, out io.Writer, svc *services.CalendarService, scope app.Scope) error {
	ctx, cancel := context.WithTimeout(ctx, syncTimeout)
	defer cancel()

	res, err := svc.Sync(ctx, scope)
	if err != nil {
		return err
	}
	if ok, err := printJSON(out, res); ok {
		return err
	}
	fmt.Fprintf(out, "%s  created %d, updated %d, unchanged %d, failed %d\n",
		time.Now().In(rt.cfg.Location).Format("15:04:05"), res.Created, res.Updated, res.Unchanged, len(res.Failed))
	for _, key := range res.Failed {
		fmt.Fprintf(out, "  failed: %s\n", key)
	}
	return nil
}
