package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/noah-isme/mentor-booking-api/pkg/marketplace"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// NewRootCmd assembles slotctl. Flags fall back to SLOTCTL_* environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SLOTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "slotctl",
		Short:         "Inspect mentor availability and book lessons against a booking API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.String("base-url", "http://localhost:8080/api", "booking API base url")
	flags.String("token", "", "bearer token (env SLOTCTL_TOKEN)")
	flags.Duration("timeout", 10*time.Second, "per-request timeout")
	flags.String("timezone", "Asia/Seoul", "scheduling timezone of the server")
	flags.Bool("verbose", false, "log every request")
	_ = v.BindPFlags(flags)

	build := func() (*marketplace.Client, error) {
		return newClient(v)
	}
	root.AddCommand(newSlotsCmd(build))
	root.AddCommand(newOccupancyCmd(build))
	root.AddCommand(newTicketsCmd(build))
	root.AddCommand(newBookCmd(build))
	root.AddCommand(newVersionCmd())
	return root
}

type clientFactory func() (*marketplace.Client, error)

func newClient(v *viper.Viper) (*marketplace.Client, error) {
	loc, err := time.LoadLocation(v.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid --timezone: %w", err)
	}
	logger := zap.NewNop()
	if v.GetBool("verbose") {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	}
	return marketplace.New(marketplace.Options{
		BaseURL:     v.GetString("base-url"),
		Timeout:     v.GetDuration("timeout"),
		Credentials: marketplace.StaticToken(v.GetString("token")),
		Location:    loc,
		Logger:      logger,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slotctl %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}
