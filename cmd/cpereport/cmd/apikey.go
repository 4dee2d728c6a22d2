package cmd

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/cpereport/internal/core/auth"
	"github.com/solatis/cpereport/internal/core/config"
	"github.com/solatis/cpereport/internal/types"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage API keys for the report API",
	Long: `Manage the HMAC-signed API keys the report API authenticates with.
Keys are derived from a secret in CR_HMAC_SECRET; only the HMAC hash is
stored, so a created key is shown exactly once.`,
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new API key",
	RunE:  runAPIKeyCreate,
}

var apikeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE:  runAPIKeyList,
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return usageErrorf("expected exactly one api-key-id argument")
		}
		return nil
	},
	RunE: runAPIKeyRevoke,
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyCreateCmd)
	apikeyCmd.AddCommand(apikeyListCmd)
	apikeyCmd.AddCommand(apikeyRevokeCmd)

	apikeyCreateCmd.Flags().String("name", "", "human-readable key name")
	apikeyCreateCmd.Flags().String("secret-id", "", "secret to sign with (defaults to the only configured secret)")
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	secretID, _ := cmd.Flags().GetString("secret-id")

	if dbURL == "" {
		return usageErrorf("--db-url is required to store API keys")
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured - set CR_HMAC_SECRET first")
	}

	if secretID == "" {
		if len(secrets) > 1 {
			return usageErrorf("multiple HMAC secrets configured; pick one with --secret-id")
		}
		for id := range secrets {
			secretID = id
		}
	}
	secret, ok := secrets[secretID]
	if !ok {
		return fmt.Errorf("secret_id %q not found in configured HMAC secrets", secretID)
	}

	apiKey, keyHash, err := auth.GenerateAPIKey(secretID, secret)
	if err != nil {
		return fmt.Errorf("failed to generate API key: %w", err)
	}

	queries, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	keyID := types.NewAPIKeyID()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = queries.Exec(cmd.Context(), "insert-api-key", string(keyID), name, secretID, keyHash, now)
	if err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("api_key_id: %s\n", keyID)
	fmt.Printf("api_key:    %s\n", apiKey)
	fmt.Println("Store the key now; only its hash is kept.")
	return nil
}

func runAPIKeyList(cmd *cobra.Command, args []string) error {
	if dbURL == "" {
		return usageErrorf("--db-url is required to list API keys")
	}

	queries, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	var keys []struct {
		APIKeyID   string         `db:"api_key_id"`
		Name       string         `db:"name"`
		SecretID   string         `db:"secret_id"`
		CreatedAt  string         `db:"created_at"`
		LastUsedAt sql.NullString `db:"last_used_at"`
		RevokedAt  sql.NullString `db:"revoked_at"`
	}
	if err := queries.Select(cmd.Context(), "list-api-keys", &keys); err != nil {
		return fmt.Errorf("failed to list API keys: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "API_KEY_ID\tNAME\tSTATUS\tCREATED\tLAST_USED")
	for _, k := range keys {
		status := "active"
		if k.RevokedAt.Valid {
			status = "revoked " + k.RevokedAt.String
		}
		lastUsed := "never"
		if k.LastUsedAt.Valid {
			lastUsed = k.LastUsedAt.String
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", k.APIKeyID, k.Name, status, k.CreatedAt, lastUsed)
	}
	return w.Flush()
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	if dbURL == "" {
		return usageErrorf("--db-url is required to revoke API keys")
	}

	queries, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := queries.Exec(cmd.Context(), "revoke-api-key", now, args[0])
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("API key %q not found or already revoked", args[0])
	}

	fmt.Printf("revoked %s\n", args[0])
	return nil
}
