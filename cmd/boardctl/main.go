// boardctl is the administrative companion to taskboard: it flips
// account active flags, lists deactivated accounts, and purges the data
// directory. It operates on the same JSON documents as the TUI and must
// not run concurrently with it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mzarei/taskboard/internal/auth"
	"github.com/mzarei/taskboard/internal/config"
	"github.com/mzarei/taskboard/internal/identity"
	"github.com/mzarei/taskboard/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type env struct {
	store *store.Store
	auth  *auth.Service
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	st, err := store.New(cfg.DataDir, zap.NewNop())
	if err != nil {
		return nil, err
	}
	index, err := identity.Open(st, zap.NewNop())
	if err != nil {
		return nil, err
	}
	return &env{
		store: st,
		auth:  auth.NewService(st, index, auth.NewVerifier(), zap.NewNop()),
	}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Administer taskboard accounts and data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDeactivateCmd(), newActivateCmd(), newInactiveCmd(), newPurgeCmd())
	return root
}

func newDeactivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <username>",
		Short: "Deactivate an account so it can no longer log in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			u, err := e.auth.SetActive(args[0], false)
			if err != nil {
				return err
			}
			cmd.Printf("Account %q (%s) deactivated.\n", u.Username, u.ID)
			return nil
		},
	}
}

func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <username>",
		Short: "Reactivate a deactivated account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			u, err := e.auth.SetActive(args[0], true)
			if err != nil {
				return err
			}
			cmd.Printf("Account %q (%s) activated.\n", u.Username, u.ID)
			return nil
		},
	}
}

func newInactiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inactive",
		Short: "List deactivated accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			users, err := e.auth.InactiveUsers()
			if err != nil {
				return err
			}
			if len(users) == 0 {
				cmd.Println("No inactive accounts.")
				return nil
			}
			for _, u := range users {
				cmd.Printf("%s\t%s\t%s\n", u.ID, u.Username, u.Email)
			}
			return nil
		},
	}
}

func newPurgeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove every stored document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge without --yes")
			}
			e, err := openEnv()
			if err != nil {
				return err
			}
			if err := e.store.Purge(); err != nil {
				return err
			}
			cmd.Println("All data purged.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the purge")
	return cmd
}
