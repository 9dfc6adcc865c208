package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"titledesk/internal/config"
	"titledesk/internal/domain/models"
	"titledesk/internal/repositories"
	"titledesk/internal/services"
	"titledesk/internal/utils"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	ratesFile string
	rulesFile string
	asOf      string
	logLevel  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "taxcalc",
		Short: "Offline vehicle tax and penalty calculator",
		Long: `taxcalc runs the title office tax engine on JSON snapshots without a
database. Rates come from a YAML file and statutory constants from an
optional rules file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := utils.InitLogger("development", opts.logLevel)
			return err
		},
	}

	root.PersistentFlags().StringVar(&opts.ratesFile, "rates", "", "YAML rate tables (tavt_masters, business_state_changes, milage_rates)")
	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", "", "YAML tax rules (defaults when empty)")
	root.PersistentFlags().StringVar(&opts.asOf, "as-of", "", "processing date used when the ticket has no start date (YYYY-MM-DD)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newComputeCmd(opts), newEstimateCmd(opts))
	return root
}

func newComputeCmd(opts *globalOptions) *cobra.Command {
	var requestFile string
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the full result for a form and ticket snapshot",
		Long: `Compute reads a ComputeRequest ({"form": ..., "ticketContext": ...}) and
prints the CalculationResult as JSON.

Example usage:
  taxcalc compute --request req.json --rates rates.yaml
  taxcalc compute --request - --rules rules.yaml < req.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), requestFile)
			if err != nil {
				return err
			}
			req, err := services.DecodeComputeRequest(raw)
			if err != nil {
				return fmt.Errorf("failed to parse JSON: %w", err)
			}
			svc, asOf, err := opts.service()
			if err != nil {
				return err
			}
			applyAsOf(&req.TicketContext, asOf)
			res, err := svc.Compute(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&requestFile, "request", "", "ComputeRequest JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func newEstimateCmd(opts *globalOptions) *cobra.Command {
	var ticketFile string
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Preview penalties and TAVT rate for a ticket snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), ticketFile)
			if err != nil {
				return err
			}
			var ticket models.TicketContext
			if err := json.Unmarshal(raw, &ticket); err != nil {
				return fmt.Errorf("failed to parse JSON: %w", err)
			}
			svc, asOf, err := opts.service()
			if err != nil {
				return err
			}
			applyAsOf(&ticket, asOf)
			est, err := svc.EstimateFor(cmd.Context(), ticket)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), est)
		},
	}
	cmd.Flags().StringVar(&ticketFile, "ticket", "", "TicketContext JSON file, - for stdin")
	_ = cmd.MarkFlagRequired("ticket")
	return cmd
}

// service builds an offline TaxService. The returned date is the parsed
// --as-of value, nil when the flag is unset.
func (o *globalOptions) service() (services.TaxService, *time.Time, error) {
	rules, err := config.LoadTaxRules(o.rulesFile)
	if err != nil {
		return services.TaxService{}, nil, err
	}

	rates := repositories.StaticRateRepository{}
	if o.ratesFile != "" {
		if rates, err = repositories.LoadStaticRates(o.ratesFile); err != nil {
			return services.TaxService{}, nil, err
		}
	}

	svc := services.TaxService{
		Rates:    rates,
		Rules:    rules,
		Notifier: services.NopNotifier{},
	}
	if o.asOf == "" {
		return svc, nil, nil
	}
	asOf, err := utils.ParseDate(o.asOf)
	if err != nil {
		return services.TaxService{}, nil, fmt.Errorf("invalid --as-of: %w", err)
	}
	return svc, &asOf, nil
}

// applyAsOf uses asOf as the processing date of a ticket that has none.
func applyAsOf(ticket *models.TicketContext, asOf *time.Time) {
	if ticket.StartDate == nil && asOf != nil {
		d := *asOf
		ticket.StartDate = &d
	}
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
