package main

import (
	"encoding/json"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/tidepool-org/medical-data/config"
	"github.com/tidepool-org/medical-data/datum"
	"github.com/tidepool-org/medical-data/logger"
	"github.com/tidepool-org/medical-data/medicaldata"
)

var (
	flagTimezone string
	flagBGUnits  string
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "ingest <records.json>",
	Short: "Run the medical data pipeline over an exported batch of raw records",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&flagTimezone, "timezone", "Europe/Paris", "default IANA timezone")
	rootCmd.Flags().StringVar(&flagBGUnits, "bg-units", string(config.MgdL), "display glucose unit (mg/dL or mmol/L)")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "dump the full aggregate as JSON")
}

func run(cmd *cobra.Command, args []string) error {
	payload, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var raws []datum.Raw
	if err := json.Unmarshal(payload, &raws); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	zapLogger, err := logger.NewProductionLogger()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	opts := config.DefaultOptions()
	opts.Timezone = flagTimezone
	opts.BGUnits = config.BGUnit(flagBGUnits)
	service := medicaldata.NewService(opts.WithDerived(), zapLogger.Sugar())

	diagnostics := service.Add(raws)

	if flagJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(service.MedicalData())
	}

	data := service.MedicalData()
	endpoints := service.Endpoints()
	fmt.Fprintf(cmd.OutOrStdout(), "records: %d ingested, %d skipped\n", len(raws)-len(diagnostics), len(diagnostics))
	fmt.Fprintf(cmd.OutOrStdout(), "range:   %s .. %s\n", endpoints[0], endpoints[1])
	fmt.Fprintf(cmd.OutOrStdout(), "basal=%d bolus=%d cbg=%d smbg=%d meals=%d messages=%d wizards=%d\n",
		len(data.Basal), len(data.Bolus), len(data.CBG), len(data.SMBG),
		len(data.Meals), len(data.Messages), len(data.Wizards))
	fmt.Fprintf(cmd.OutOrStdout(), "timezones: %d breakpoints, %d change events\n",
		len(service.TimezoneList()), len(data.TimezoneChanges))
	for _, diagnostic := range diagnostics {
		fmt.Fprintf(cmd.OutOrStdout(), "skipped #%d (%s): %s\n", diagnostic.Index, diagnostic.Type, diagnostic.Reason)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
