package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/frahmantamala/taktplan/internal/board"
	"github.com/frahmantamala/taktplan/internal/client"
	"github.com/frahmantamala/taktplan/internal/task"
	"github.com/frahmantamala/taktplan/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	boardAPI      string
	boardEmail    string
	boardPassword string
	boardMine     bool
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show and move cards on the task board through the REST API",
}

var boardShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the board lanes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		b, err := openBoard(ctx)
		if err != nil {
			return err
		}
		renderBoard(cmd.OutOrStdout(), b)
		return nil
	},
}

var boardMoveCmd = &cobra.Command{
	Use:   "move <task-id> <in_progress|done|later>",
	Short: "Move a card to another lane",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		b, err := openBoard(ctx)
		if err != nil {
			return err
		}

		pending, err := b.Move(ctx, id, task.Status(args[1]))
		if err != nil {
			return err
		}
		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := pending.Wait(waitCtx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "move rejected: %v\n", err)
		}
		renderBoard(cmd.OutOrStdout(), b)
		return nil
	},
}

func init() {
	boardCmd.PersistentFlags().StringVar(&boardAPI, "api", envOr("TAKTPLAN_API", "http://localhost:3001"), "API base URL")
	boardCmd.PersistentFlags().StringVar(&boardEmail, "email", os.Getenv("TAKTPLAN_EMAIL"), "login email")
	boardCmd.PersistentFlags().StringVar(&boardPassword, "password", os.Getenv("TAKTPLAN_PASSWORD"), "login password")
	boardCmd.PersistentFlags().BoolVar(&boardMine, "mine", false, "only tasks assigned to me")

	boardCmd.AddCommand(boardShowCmd)
	boardCmd.AddCommand(boardMoveCmd)
}

func openBoard(ctx context.Context) (*board.Board, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if boardEmail == "" || boardPassword == "" {
		return nil, fmt.Errorf("--email and --password are required")
	}

	c := client.New(boardAPI)
	if _, err := c.Login(ctx, boardEmail, boardPassword); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	list := c.ListTasks
	if boardMine {
		list = c.MyTasks
	}
	tasks, err := list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	b := board.New(c, logger.LoggerWrapper())
	b.Load(tasks)
	return b, nil
}

func renderBoard(out io.Writer, b *board.Board) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, s := range task.Statuses {
		cards := b.Lane(s)
		fmt.Fprintf(tw, "== %s (%d)\n", s, len(cards))
		for _, c := range cards {
			assignee := "-"
			if c.AssigneeID != nil {
				assignee = strconv.FormatInt(*c.AssigneeID, 10)
			}
			fmt.Fprintf(tw, "  #%d\t%s\tassignee %s\n", c.ID, c.Title, assignee)
		}
	}
	if rejected := b.Inadmissible(); len(rejected) > 0 {
		fmt.Fprintf(tw, "== unknown status (%d)\n", len(rejected))
		for _, c := range rejected {
			fmt.Fprintf(tw, "  #%d\t%s\t%s\n", c.ID, c.Title, c.Status)
		}
	}
	_ = tw.Flush()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
