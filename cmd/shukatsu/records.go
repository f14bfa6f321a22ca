package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hiro4859/syukatsu-base-v2/internal/dates"
	"github.com/hiro4859/syukatsu-base-v2/internal/deadlines"
	"github.com/hiro4859/syukatsu-base-v2/internal/listing"
	"github.com/hiro4859/syukatsu-base-v2/internal/services"
)

// Companies command flags.
var (
	companiesFlagQuery    string
	companiesFlagIndustry string
	companiesFlagSort     string
)

// Deadlines command flags.
var (
	deadlinesFlagAll     bool
	deadlinesFlagCompany string
)

// Task command flags.
var (
	taskFlagDue     string
	taskFlagCompany string
	taskFlagNote    string
)

var companiesCmd = &cobra.Command{
	Use:     "companies",
	Aliases: []string{"ls"},
	Short:   "List companies",
	Long: `List companies, filtered by a name or industry search and a sort order.

Examples:
  shukatsu companies
  shukatsu companies --q 商事 --sort motivation
  shukatsu companies --industry IT --sort es_deadline`,
	RunE: runCompanies,
}

var deadlinesCmd = &cobra.Command{
	Use:   "deadlines",
	Short: "Show upcoming deadlines",
	Long: `Show open tasks and company deadlines, earliest first.

By default only the next 7 days are shown, at most 5 items. --all lifts both
limits. --company shows every deadline of one company.`,
	RunE: runDeadlines,
}

var completeCmd = &cobra.Command{
	Use:   "complete KEY",
	Short: "Mark a task deadline as done",
	Long: `Mark the task behind a deadline key (as printed by "deadlines") as completed.
Company deadlines have nothing to complete and are left as they are.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

var taskCmd = &cobra.Command{
	Use:   "task TITLE",
	Short: "Add a task",
	Long: `Add a task. The due date may be an ISO date or a phrase.

Examples:
  shukatsu task 証明写真を撮る --due tomorrow
  shukatsu task OB訪問 --due 2025-02-01 --company 8f14e45f`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTask,
}

func init() {
	companiesCmd.Flags().StringVar(&companiesFlagQuery, "q", "", "Search company names and industries")
	companiesCmd.Flags().StringVar(&companiesFlagIndustry, "industry", "", "Only this industry")
	companiesCmd.Flags().StringVar(&companiesFlagSort, "sort", "", "created_at, motivation or es_deadline")

	deadlinesCmd.Flags().BoolVarP(&deadlinesFlagAll, "all", "a", false, "Show every open deadline")
	deadlinesCmd.Flags().StringVarP(&deadlinesFlagCompany, "company", "c", "", "Only deadlines of this company id")

	taskCmd.Flags().StringVarP(&taskFlagDue, "due", "d", "", "Due date")
	taskCmd.Flags().StringVarP(&taskFlagCompany, "company", "c", "", "Company id")
	taskCmd.Flags().StringVarP(&taskFlagNote, "note", "n", "", "Description")

	rootCmd.AddCommand(companiesCmd, deadlinesCmd, completeCmd, taskCmd)
}

func runCompanies(cmd *cobra.Command, args []string) error {
	key, err := listing.ParseSortKey(companiesFlagSort)
	if err != nil {
		return err
	}
	scope, err := rt.scope(cmd.Context())
	if err != nil {
		return err
	}
	list, err := services.NewCompanyService(rt.log, rt.clock, "").List(cmd.Context(), scope, listing.Criteria{
		Query:    companiesFlagQuery,
		Industry: companiesFlagIndustry,
		Sort:     key,
	})
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd.OutOrStdout(), list); ok {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tINDUSTRY\tMOTIVATION\tES\tWEBTEST")
	for _, c := range list.Companies {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, orDash(c.Industry), strings.Repeat("★", max(c.MotivationLevel, 0)),
			dates.Long(c.ESDeadline), dates.Long(c.WebtestDeadline))
	}
	return w.Flush()
}

func runDeadlines(cmd *cobra.Command, args []string) error {
	scope, err := rt.scope(cmd.Context())
	if err != nil {
		return err
	}
	svc := services.NewDeadlineService(rt.log, rt.clock)
	var items []deadlines.Item
	if deadlinesFlagCompany != "" {
		items, err = svc.ForCompany(cmd.Context(), scope, deadlinesFlagCompany)
	} else {
		items, err = svc.Upcoming(cmd.Context(), scope, deadlinesFlagAll)
	}
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd.OutOrStdout(), items); ok {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no upcoming deadlines")
		return nil
	}
	return writeDeadlines(cmd.OutOrStdout(), items, dates.Today(rt.clock.Now(), rt.clock.Location))
}

func writeDeadlines(out io.Writer, items []deadlines.Item, today dates.Date) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tDUE\tIN\tTYPE\tTITLE\tCOMPANY")
	for _, it := range items {
		in := "-"
		if days, ok := dates.DaysUntil(today, it.DueDate); ok {
			in = fmt.Sprintf("%dd", days)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.Key, dates.Short(it.DueDate), in, it.Kind.Label(), it.Title, orDash(it.CompanyName))
	}
	return w.Flush()
}

func runComplete(cmd *cobra.Command, args []string) error {
	id, err := deadlines.ParseKey(args[0])
	if err != nil {
		return err
	}
	scope, err := rt.scope(cmd.Context())
	if err != nil {
		return err
	}
	if err := services.NewDeadlineService(rt.log, rt.clock).CompleteTask(cmd.Context(), scope, id); err != nil {
		return err
	}
	if id.Kind != deadlines.KindTask {
		fmt.Fprintln(cmd.OutOrStdout(), "company deadlines are not completed; nothing changed")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "completed %s\n", id.Key())
	return nil
}

func runTask(cmd *cobra.Command, args []string) error {
	scope, err := rt.scope(cmd.Context())
	if err != nil {
		return err
	}
	in := services.TaskInput{
		Title:       strings.Join(args, " "),
		Description: taskFlagNote,
		DueDate:     taskFlagDue,
	}
	if taskFlagCompany != "" {
		in.CompanyID = &taskFlagCompany
	}
	task, err := services.NewTaskService(rt.log, rt.clock).Create(cmd.Context(), scope, in)
	if err != nil {
		return err
	}
	if ok, err := printJSON(cmd.OutOrStdout(), task); ok {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s (due %s)\n", task.ID, dates.Long(task.DueDate))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return dates.Placeholder
	}
	return s
}
