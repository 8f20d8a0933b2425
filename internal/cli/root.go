// Package cli implements the clicker terminal client.
package cli

import (
	"fmt"
	"strings"

	"clicker/internal/client"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type options struct {
	server  string
	name    string
	country string
}

func (o *options) client() *client.Client {
	return client.New(o.server)
}

// NewRootCmd builds the clicker command tree
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	v := viper.New()
	v.SetEnvPrefix("CLICKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "clicker",
		Short:         "Chant Hare Krishna in your terminal and climb the leaderboard.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version,
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&opts.server, "server", "s", "http://localhost:8080", "leaderboard server URL (env: CLICKER_SERVER)")
	fs.StringVarP(&opts.name, "name", "n", "", "player name used when submitting (env: CLICKER_NAME)")
	fs.StringVarP(&opts.country, "country", "c", "", "two-letter region code (env: CLICKER_COUNTRY)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(
		newPlayCmd(opts),
		newTopCmd(opts),
		newTotalCmd(opts),
	)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("clicker v{{.Version}}\n")

	return cmd
}
