package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/baharkarakas/paystream/internal/audit"
	"github.com/baharkarakas/paystream/internal/config"
	"github.com/baharkarakas/paystream/internal/identity"
	"github.com/baharkarakas/paystream/internal/services"
)

// seedUser is recorded as the actor of seeded banks.
const seedUser = "system:seed"

type bankFile struct {
	Banks []services.BankInput `yaml:"banks"`
}

func parseBankFile(data []byte) ([]services.BankInput, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing bank file: %w", err)
	}
	if len(f.Banks) == 0 {
		return nil, fmt.Errorf("bank file lists no banks")
	}
	return f.Banks, nil
}

func newSeedBanksCommand() *cobra.Command {
	var tenantID, file string

	cmd := &cobra.Command{
		Use:   "seed-banks",
		Short: "Load bank directory entries for a tenant from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			banks, err := parseBankFile(data)
			if err != nil {
				return err
			}

			cfg, log, err := loadEnv()
			if err != nil {
				return err
			}
			if cfg.Store == config.StoreMemory {
				return fmt.Errorf("seed-banks needs STORE=%s", config.StorePostgres)
			}
			store, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := services.NewBankService(store, audit.NewRecorder(log), log)
			return seedBanks(cmd.Context(), svc, tenantID, banks, cmd.OutOrStdout(), log)
		},
	}

	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&file, "file", "", "YAML file with a top-level banks list (required)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// seedBanks creates each bank in its own unit, so one bad entry does not stop
// the rest. It fails if any entry failed.
func seedBanks(ctx context.Context, svc *services.BankService, tenantID string, banks []services.BankInput, out io.Writer, log *slog.Logger) error {
	who := identity.New(tenantID, seedUser, "", identity.RoleAdmin)
	if err := who.Validate(); err != nil {
		return err
	}

	failed := 0
	for _, in := range banks {
		b, err := svc.Create(ctx, who, in)
		if err != nil {
			failed++
			log.Warn("bank not seeded", "tenant", tenantID, "branch_code", in.BranchCode, "err", err)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\n", b.ID, b.BranchCode, b.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d banks not seeded", failed, len(banks))
	}
	return nil
}
