package cmd

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account with the configured opening cash",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	cfg, _, st, _, cleanup, err := open()
	if err != nil {
		return err
	}
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	cash, err := cfg.Account.ParseOpeningCash()
	if err != nil {
		return fmt.Errorf("opening cash: %w", err)
	}

	acct, err := st.CreateAccount(context.Background(), args[0], string(hash), cash)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Printf("Account %d (%s) created with %s\n", acct.ID, acct.Username, usd(acct.Cash))
	return nil
}
