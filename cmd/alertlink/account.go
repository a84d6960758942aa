package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/alertlink/internal/domain"
	"github.com/xiaot623/gogo/alertlink/internal/service"
	"github.com/xiaot623/gogo/alertlink/internal/store"
)

// withAccountService opens the store for one account command. Account
// commands never generate or deliver alerts.
func withAccountService(ctx *commandContext, fn func(*service.Service) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	db, err := store.NewSQLiteStore(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	return fn(service.New(db, nil, nil, cfg))
}

func newAccountCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage recipient accounts",
	}
	cmd.AddCommand(
		newAccountAddCommand(ctx),
		newAccountListCommand(ctx),
		newAccountShowCommand(ctx),
		newAccountActiveCommand(ctx, "activate", true),
		newAccountActiveCommand(ctx, "deactivate", false),
		newAccountPasswdCommand(ctx),
	)
	return cmd
}

func newAccountAddCommand(ctx *commandContext) *cobra.Command {
	var password, name string

	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Register an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read password: %w", err)
				}
			}
			return withAccountService(ctx, func(svc *service.Service) error {
				account, err := svc.RegisterAccount(cmd.Context(), args[0], password, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", account.Identity)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password (read from stdin when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name used in greetings")
	return cmd
}

func newAccountListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccountService(ctx, func(svc *service.Service) error {
				accounts, err := svc.ListAccounts(cmd.Context())
				if err != nil {
					return err
				}
				if len(accounts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts")
					return nil
				}
				rows := make([][]string, 0, len(accounts))
				for _, a := range accounts {
					link, err := linkOf(cmd.Context(), svc, a.Identity)
					if err != nil {
						return err
					}
					rows = append(rows, []string{a.Identity, a.DisplayName, activeLabel(a.Active), link, formatTime(a.LastLoginAt)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Email", "Name", "Status", "Channel", "Last login"}, rows))
				return nil
			})
		},
	}
}

func newAccountShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <email>",
		Short: "Show one account and its linked channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccountService(ctx, func(svc *service.Service) error {
				account, err := svc.GetAccount(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				link, err := linkOf(cmd.Context(), svc, account.Identity)
				if err != nil {
					return err
				}
				created := account.CreatedAt
				rows := [][]string{
					{"Email", account.Identity},
					{"Name", account.Name()},
					{"Status", activeLabel(account.Active)},
					{"Channel", link},
					{"Created", formatTime(&created)},
					{"Last login", formatTime(account.LastLoginAt)},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))
				return nil
			})
		},
	}
}

func newAccountActiveCommand(ctx *commandContext, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <email>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAccountService(ctx, func(svc *service.Service) error {
				if err := svc.SetAccountActive(cmd.Context(), args[0], active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", domain.NormalizeIdentity(args[0]), activeLabel(active))
				return nil
			})
		},
	}
}

func newAccountPasswdCommand(ctx *commandContext) *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "passwd <email>",
		Short: "Change an account password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if next == "" {
				var err error
				if next, err = readLine(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("read new password: %w", err)
				}
			}
			return withAccountService(ctx, func(svc *service.Service) error {
				if err := svc.ChangePassword(cmd.Context(), args[0], current, next); err != nil {
					if errors.Is(err, domain.ErrUnauthenticated) {
						return errors.New("current password is incorrect")
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Password changed")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&current, "current", "", "Current password")
	cmd.Flags().StringVar(&next, "new", "", "New password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("current")
	return cmd
}

func linkOf(ctx context.Context, svc *service.Service, identity string) (string, error) {
	addr, err := svc.ResolveAddress(ctx, identity)
	if err != nil {
		return "", err
	}
	if addr == nil {
		return "-", nil
	}
	return addr.String(), nil
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// readLine reads one line without its line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
