package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wisbric/ai-shell/internal/apperr"
	"github.com/wisbric/ai-shell/internal/runtime"
	"github.com/wisbric/ai-shell/pkg/vault"
)

func newVaultCmd(sys *runtime.System) *cobra.Command {
	root := &cobra.Command{
		Use:   "vault",
		Short: "Manage encrypted credentials",
	}

	var credType string
	addCmd := &cobra.Command{
		Use:   "add <name> <value>",
		Short: "Store a new credential",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dryRun {
				fmt.Printf("would store credential %q\n", args[0])
				return nil
			}
			typ := vault.TypeStandard
			switch credType {
			case "database":
				typ = vault.TypeDatabase
			case "user-defined":
				typ = vault.TypeUserDefined
			case "standard", "":
			default:
				return apperr.New(apperr.KindInvalidInput, "cli.vault.add", fmt.Sprintf("unknown --type %q", credType))
			}
			if err := sys.Vault.Store(args[0], args[1], typ, nil); err != nil {
				return err
			}
			return writeOutput([]string{"name", "type"}, []map[string]string{{"name": args[0], "type": string(typ)}})
		},
	}
	addCmd.Flags().StringVar(&credType, "type", "standard", "credential type: standard|database|user-defined")
	root.AddCommand(addCmd)

	var reveal bool
	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Retrieve a credential's value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := sys.Vault.Retrieve(args[0], !reveal)
			if err != nil {
				return err
			}
			return writeOutput([]string{"name", "value"}, []map[string]string{{"name": args[0], "value": value}})
		},
	}
	getCmd.Flags().BoolVar(&reveal, "reveal", false, "return the plaintext instead of an opaque token")
	root.AddCommand(getCmd)

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored credential names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := sys.Vault.Names()
			rows := make([]map[string]string, 0, len(names))
			for _, n := range names {
				rows = append(rows, map[string]string{"name": n})
			}
			return writeOutput([]string{"name"}, rows)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dryRun {
				fmt.Printf("would remove credential %q\n", args[0])
				return nil
			}
			return sys.Vault.Delete(args[0])
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "rotate <name>",
		Short: "Re-encrypt a credential under a fresh nonce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dryRun {
				fmt.Printf("would rotate credential %q\n", args[0])
				return nil
			}
			return sys.Vault.Rotate(args[0])
		},
	})

	return root
}
