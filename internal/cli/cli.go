// Package cli implements the carbonctl command tree on top of the SQLite
// store. Every invocation resumes the session left by the previous one.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"carbon/internal/adapter/localstore"
	"carbon/internal/app"
	"carbon/internal/domain"

	"github.com/spf13/cobra"
)

type runtime struct {
	store    *localstore.Store
	accounts *app.AccountService
	tracker  *app.Tracker
}

func openRuntime(ctx context.Context, dbPath, policy string) (*runtime, error) {
	store, err := localstore.Open(dbPath)
	if err != nil {
		return nil, err
	}
	passwords, err := app.PasswordPolicyByName(policy)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := app.NewAccountService(store, store, passwords, app.WithAccountLogger(quiet))
	tracker := app.NewTracker(accounts)
	accounts.Attach(tracker)

	if _, err := accounts.Restore(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return &runtime{store: store, accounts: accounts, tracker: tracker}, nil
}

func (r *runtime) Close() error { return r.store.Close() }

// NewRootCmd builds the carbonctl command tree.
func NewRootCmd() *cobra.Command {
	var dbPath, policy string

	root := &cobra.Command{
		Use:           "carbonctl",
		Short:         "Track your personal carbon footprint",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "carbon.db", "SQLite database path")
	root.PersistentFlags().StringVar(&policy, "password-policy", "plaintext", "password storage: plaintext or bcrypt")

	with := func(fn func(cmd *cobra.Command, rt *runtime, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), dbPath, policy)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()
			return fn(cmd, rt, args)
		}
	}

	root.AddCommand(newRegisterCmd(with))
	root.AddCommand(newLoginCmd(with))
	root.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, rt *runtime, _ []string) error {
			if err := rt.accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), app.NoticeSignedOut.Message)
			return nil
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, rt *runtime, _ []string) error {
			sess, err := rt.accounts.CurrentSession(cmd.Context())
			if err != nil {
				return err
			}
			if sess == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> id=%s\n", sess.Name, sess.Email, sess.UserID)
			return nil
		}),
	})
	root.AddCommand(newAddCmd(with))
	root.AddCommand(newRemoveCmd(with))
	root.AddCommand(newResetCmd(with))
	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show counts, total and recent activity",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, rt *runtime, _ []string) error {
			printStatus(cmd.OutOrStdout(), rt.tracker.Snapshot())
			return nil
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "categories",
		Short: "List activity categories and their impact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range domain.Categories() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s %s\t%g kg\n", c, c.Icon(), c.Label(), c.ImpactFactor())
			}
			return nil
		},
	})
	return root
}

type runner func(fn func(cmd *cobra.Command, rt *runtime, args []string) error) func(*cobra.Command, []string) error

func newRegisterCmd(with runner) *cobra.Command {
	var name, email, password, confirm string
	cmd := &cobra.Command{
		Use:   "register --name <name> --email <email> --password <pw> --confirm <pw>",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, rt *runtime, _ []string) error {
			u, err := rt.accounts.Register(cmd.Context(), name, email, password, confirm)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! Your account has been created.\n", u.Name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password again")
	return cmd
}

func newLoginCmd(with runner) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login --email <email> --password <pw>",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, rt *runtime, _ []string) error {
			sess, err := rt.accounts.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Welcome back, %s!\n", sess.Name)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	return cmd
}

func newAddCmd(with runner) *cobra.Command {
	return &cobra.Command{
		Use:   "add <category>",
		Short: "Record one unit of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, rt *runtime, args []string) error {
			if err := requireSession(cmd, rt); err != nil {
				return err
			}
			c, err := domain.ParseCategory(args[0])
			if err != nil {
				return err
			}
			notice, err := rt.tracker.AddActivity(cmd.Context(), c)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (total %.1f kg)\n", notice.Message, rt.tracker.CalculateTotal())
			return nil
		}),
	}
}

func newRemoveCmd(with runner) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <category>",
		Short: "Take back one unit of an activity",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, rt *runtime, args []string) error {
			if err := requireSession(cmd, rt); err != nil {
				return err
			}
			c, err := domain.ParseCategory(args[0])
			if err != nil {
				return err
			}
			notice, changed, err := rt.tracker.RemoveActivity(cmd.Context(), c)
			if err != nil {
				return err
			}
			if !changed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "nothing to remove for %s\n", c.Label())
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (total %.1f kg)\n", notice.Message, rt.tracker.CalculateTotal())
			return nil
		}),
	}
}

func newResetCmd(with runner) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset --yes",
		Short: "Zero all counts for a new period",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, rt *runtime, _ []string) error {
			if !yes {
				return fmt.Errorf("reset discards the current period; pass --yes to confirm")
			}
			if err := requireSession(cmd, rt); err != nil {
				return err
			}
			notice, err := rt.tracker.ResetPeriod(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), notice.Message)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func requireSession(cmd *cobra.Command, rt *runtime) error {
	sess, err := rt.accounts.CurrentSession(cmd.Context())
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("not signed in; run carbonctl login first")
	}
	return nil
}

func printStatus(w io.Writer, snap app.Snapshot) {
	for _, c := range domain.Categories() {
		_, _ = fmt.Fprintf(w, "%s %-18s %d\n", c.Icon(), c.Label(), snap.Footprint.Count(c))
	}
	_, _ = fmt.Fprintf(w, "total: %.1f kg CO2 level=%s progress=%.0f%%\n", snap.Total, snap.Level, snap.Progress)
	if len(snap.History) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 32))
	for _, e := range snap.History {
		_, _ = fmt.Fprintf(w, "%s %s %s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Icon, e.Label, e.ImpactText())
	}
}
