package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mittrack/internal/api"
	"mittrack/internal/config"
	"mittrack/internal/orders"
	"mittrack/internal/session"
	"mittrack/internal/store"
	"mittrack/internal/viewer"
)

var a *app

type app struct {
	cfg      *config.Config
	store    *store.BoltStore
	client   *api.Client
	sessions *session.Manager
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	st, err := store.NewBoltStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.APIBaseURL, cfg.Timeout(), slog.Default())
	sessions := session.NewManager(client, st, slog.Default())
	sessions.Restore()

	return &app{cfg: cfg, store: st, client: client, sessions: sessions}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Error("close session store failed", "error", err)
	}
}

func main() {
	root := &cobra.Command{
		Use:           "mittrack",
		Short:         "Order tracking client for the mittracking service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
	}

	root.AddCommand(loginCmd(), logoutCmd(), whoamiCmd(), ordersCmd(), orderCmd(), historyCmd(), docsCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login EMAIL PASSWORD",
		Short: "Authenticate and persist the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.sessions.Login(context.Background(), args[0], args[1]) {
				return fmt.Errorf("login: %s", a.sessions.Err())
			}
			user := a.sessions.CurrentUser()
			fmt.Printf("logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and persisted credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.sessions.Logout()
			fmt.Println("logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.sessions.IsAuthenticated() {
				fmt.Println("not logged in")
				return nil
			}
			user := a.sessions.CurrentUser()
			fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.UserType)
			return nil
		},
	}
}

func ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List orders with their document counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agg := orders.New(context.Background(), a.client, a.cfg.DocumentsPageLimit, slog.Default())
			if msg := agg.Err(); msg != "" {
				return fmt.Errorf("orders: %s", msg)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tTITLE\tCUSTOMER\tSTATUS\tVALUE\tDOCS")
			for _, o := range agg.Orders() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f %s\t%d\n",
					o.OrderID, o.Title, o.Customer, o.Status, o.Value, o.Currency, o.DocumentsCount)
			}
			return w.Flush()
		},
	}
}

func orderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order ORDER_ID",
		Short: "Show one order's full record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg := orders.NewIdle(a.client, a.cfg.DocumentsPageLimit, slog.Default())
			order := agg.GetOrderDetails(context.Background(), args[0])
			if order == nil {
				return fmt.Errorf("order %s: %s", args[0], agg.Err())
			}
			fmt.Printf("%s: %s\n", order.OrderID, order.Title)
			fmt.Printf("  customer:  %s\n", order.Customer)
			fmt.Printf("  status:    %s (%s)\n", order.Status, order.OrderType)
			fmt.Printf("  value:     %.2f %s\n", order.Value, order.Currency)
			fmt.Printf("  route:     %s -> %s\n", order.Origin, order.Destination)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history ORDER_ID",
		Short: "Show an order's version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg := orders.NewIdle(a.client, a.cfg.DocumentsPageLimit, slog.Default())
			history := agg.GetOrderHistory(context.Background(), args[0], limit)
			if history == nil {
				return fmt.Errorf("history %s: %s", args[0], agg.Err())
			}
			for _, commit := range history.History {
				fmt.Printf("%s  %-10s %s (%s)\n",
					commit.Timestamp.Format("2006-01-02 15:04"), commit.Action, commit.Message, commit.UserID)
			}
			if history.Truncated() {
				fmt.Printf("showing %d of %d commits\n", history.Showing, history.TotalCommits)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "most recent commits to show (0 = all)")
	return cmd
}

func docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs ORDER_ID",
		Short: "Print an order's documents as viewer payloads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			documents, err := a.client.ListDocuments(context.Background(), a.cfg.DocumentsPageLimit)
			if err != nil {
				return fmt.Errorf("docs %s: %s", args[0], api.Message(err, "failed to load documents"))
			}

			var payloads []viewer.Document
			for _, d := range documents {
				if d.OrderID == args[0] {
					payloads = append(payloads, viewer.FromOrderDocument(d))
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(payloads)
		},
	}
}
