package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/logger"
	"github.com/jmehdipour/ivr-gateway/internal/provider"
	"github.com/jmehdipour/ivr-gateway/internal/service/trigger"
	"github.com/jmehdipour/ivr-gateway/internal/util"
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call [number]",
	Short: "Place one outbound call into the IVR",
	Long:  "Place one outbound call. Without an argument the destination number is read from stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)

		prov, err := provider.New(cfg.Provider)
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true
		return runCall(cmd.Context(), cfg, prov, args, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var errCallFailed = errors.New("call not placed")

// runCall fails fast on missing settings, asks for a number when none was
// given and reports the outcome with troubleshooting hints.
func runCall(ctx context.Context, cfg config.Config, prov provider.Provider, args []string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "   IVR CALL INITIATOR")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	if err := cfg.RequireCallSettings(); err != nil {
		var merr *config.MissingError
		if errors.As(err, &merr) {
			fmt.Fprintln(out, ">> Missing required configuration:")
			for _, k := range merr.Keys {
				fmt.Fprintf(out, "   - %s\n", k)
			}
			fmt.Fprintln(out, ">> Make sure your .env file or config.yaml is configured correctly")
		}
		return err
	}

	fmt.Fprintln(out, ">> Configuration loaded")
	fmt.Fprintf(out, "   From Number: %s\n", cfg.Provider.PhoneNumber)
	fmt.Fprintf(out, "   Server URL: %s\n", cfg.PublicURL)
	fmt.Fprintf(out, "   Provider: %s\n\n", prov.Name())

	var number string
	if len(args) > 0 {
		number = args[0]
	} else {
		fmt.Fprint(out, "Enter phone number (with country code, e.g., +919876543210): ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read number: %w", err)
		}
		number = line
	}

	number = strings.TrimSpace(number)
	if util.IsE164(number) {
		fmt.Fprintf(out, "\n>> Initiating call to: %s\n", number)
		fmt.Fprintln(out, "   Please wait...")
	}

	svc := trigger.New(cfg, prov, logger.Log)

	res, err := svc.Trigger(ctx, number)
	if err != nil {
		switch {
		case errors.Is(err, trigger.ErrEmptyNumber):
			fmt.Fprintln(out, ">> Phone number cannot be empty")
		case errors.Is(err, trigger.ErrInvalidNumber):
			fmt.Fprintln(out, ">> Invalid phone number format")
			fmt.Fprintln(out, "   "+trigger.FormatHint)
		default:
			fmt.Fprintln(out, ">> Error initiating call:")
			var perr *provider.Error
			if errors.As(err, &perr) {
				fmt.Fprintf(out, "   %s\n", perr.Message)
				if perr.Status > 0 {
					fmt.Fprintf(out, "   Status Code: %d\n", perr.Status)
				}
			} else {
				fmt.Fprintf(out, "   %v\n", err)
			}
			printTroubleshooting(out)
		}
		return fmt.Errorf("%w: %w", errCallFailed, err)
	}

	fmt.Fprintln(out, ">> Call initiated successfully!")
	fmt.Fprintln(out, "   Call Details:")
	fmt.Fprintf(out, "   - Call UUID: %s\n", res.RequestUUID)
	if res.Message != "" {
		fmt.Fprintf(out, "   - Message: %s\n", res.Message)
	}
	if res.APIID != "" {
		fmt.Fprintf(out, "   - API ID: %s\n", res.APIID)
	}
	if res.Region != "" {
		fmt.Fprintf(out, "   - Region: %s\n", res.Region)
	}
	fmt.Fprintln(out, "\n   The phone should start ringing shortly. Follow the IVR prompts when you answer.")
	return nil
}

func printTroubleshooting(out io.Writer) {
	fmt.Fprintln(out, "\n>> Troubleshooting tips:")
	fmt.Fprintln(out, "   1. Check your .env file has correct credentials")
	fmt.Fprintln(out, "   2. Ensure phone number includes country code (e.g., +1234567890)")
	fmt.Fprintln(out, "   3. Verify the number is in your verified caller IDs (for trial accounts)")
	fmt.Fprintln(out, "   4. Check if your tunnel (e.g. ngrok) is running")
	fmt.Fprintln(out, "   5. Ensure the public URL matches your tunnel URL")
}
