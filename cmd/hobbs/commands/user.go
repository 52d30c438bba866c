package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hobbsbbs/hobbs/internal/cli/output"
	"github.com/hobbsbbs/hobbs/internal/cli/prompt"
	"github.com/hobbsbbs/hobbs/pkg/config"
	"github.com/hobbsbbs/hobbs/pkg/store"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long: `Manage HOBBS user accounts directly against the database.

These commands are offline conveniences for the SysOp; the first account
created becomes SysOp automatically.

Subcommands:
  create      Create a new account (prompts for password)
  list        List all accounts
  passwd      Change an account's password
  role        Change an account's role
  deactivate  Disable an account's logins
  activate    Re-enable a deactivated account`,
}

var (
	userCreateNickname string
	userCreateRole     string
)

var userCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	RunE:  runUserList,
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change an account's password",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserPasswd,
}

var userRoleCmd = &cobra.Command{
	Use:   "role <username> [role]",
	Short: "Change an account's role (guest, member, subop, sysop)",
	Long:  "Change an account's role. With the role omitted, presents an interactive picker.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runUserRole,
}

var userDeactivateYes bool

var userDeactivateCmd = &cobra.Command{
	Use:   "deactivate <username>",
	Short: "Disable an account's logins",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDeactivate,
}

var userActivateCmd = &cobra.Command{
	Use:   "activate <username>",
	Short: "Re-enable a deactivated account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserActivate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreateNickname, "nickname", "", "display nickname")
	userCreateCmd.Flags().StringVar(&userCreateRole, "role", "", "initial role (default: member, or sysop for the first account)")
	userDeactivateCmd.Flags().BoolVar(&userDeactivateYes, "yes", false, "skip the confirmation prompt")

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userPasswdCmd)
	userCmd.AddCommand(userRoleCmd)
	userCmd.AddCommand(userDeactivateCmd)
	userCmd.AddCommand(userActivateCmd)
}

// openStore loads the configuration and opens the persistent store.
func openStore() (*store.GORMStore, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := store.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	username := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	password, err := prompt.PasswordWithConfirmation("Password", "Confirm password", store.MinPasswordLength)
	if err != nil {
		return err
	}

	nickname := userCreateNickname
	if nickname == "" {
		if nickname, err = prompt.InputOptional("Nickname"); err != nil {
			return err
		}
	}

	ctx := context.Background()
	user, err := st.RegisterUser(ctx, username, password, nickname)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if userCreateRole != "" {
		role, err := models.ParseRole(userCreateRole)
		if err != nil {
			return err
		}
		if role != user.Role {
			if err := st.ChangeRole(ctx, user.ID, role); err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}
			user.Role = role
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User %q created (role: %s)\n", user.Username, user.Role)
	return nil
}

func runUserList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	users, total, err := st.ListUsers(context.Background(), store.Page{Limit: 1000})
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if total == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No accounts yet")
		return nil
	}

	table := output.NewTableData("USERNAME", "NICKNAME", "ROLE", "ACTIVE", "LAST LOGIN")
	for _, u := range users {
		active := "yes"
		if !u.IsActive {
			active = "no"
		}
		lastLogin := "-"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format(time.DateTime)
		}
		table.AddRow(u.Username, u.Nickname, u.Role.String(), active, lastLogin)
	}
	return output.PrintTable(os.Stdout, table)
}

func runUserPasswd(cmd *cobra.Command, args []string) error {
	username := args[0]

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	user, err := st.GetUser(ctx, username)
	if err != nil {
		return err
	}

	password, err := prompt.PasswordWithConfirmation("New password", "Confirm password", store.MinPasswordLength)
	if err != nil {
		return err
	}

	if err := st.UpdatePassword(ctx, user.ID, password); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Password changed for %q\n", username)
	return nil
}

func runUserRole(cmd *cobra.Command, args []string) error {
	username := args[0]

	var roleName string
	if len(args) == 2 {
		roleName = args[1]
	} else {
		var err error
		roleName, err = prompt.Select("Role for "+username, []prompt.SelectOption{
			{Label: "guest", Value: "guest", Description: "read-only access to public boards"},
			{Label: "member", Value: "member", Description: "post, mail and chat"},
			{Label: "subop", Value: "subop", Description: "moderate boards and files"},
			{Label: "sysop", Value: "sysop", Description: "full administration"},
		})
		if err != nil {
			return err
		}
	}
	role, err := models.ParseRole(roleName)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	user, err := st.GetUser(ctx, username)
	if err != nil {
		return err
	}

	if err := st.ChangeRole(ctx, user.ID, role); err != nil {
		return fmt.Errorf("failed to change role: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Role for %q is now %s\n", username, role)
	return nil
}

func runUserDeactivate(cmd *cobra.Command, args []string) error {
	username := args[0]

	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Deactivate %q? Active sessions are not dropped", username), userDeactivateYes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
		return nil
	}

	return setUserActive(cmd, username, false)
}

func runUserActivate(cmd *cobra.Command, args []string) error {
	return setUserActive(cmd, args[0], true)
}

func setUserActive(cmd *cobra.Command, username string, active bool) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	user, err := st.GetUser(ctx, username)
	if err != nil {
		return err
	}

	if err := st.SetUserActive(ctx, user.ID, active); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	verb := "deactivated"
	if active {
		verb = "activated"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account %q %s\n", username, verb)
	return nil
}
