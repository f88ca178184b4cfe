package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/KarpelesLab/apicall"
	"github.com/KarpelesLab/pjson"
	"github.com/KarpelesLab/webutil"
	"github.com/spf13/cobra"
)

// call a remote API by operation name and print the raw response

var (
	configFile   string
	address      string
	timeout      int
	verifyPeer   bool
	verifyHost   bool
	noIPv4       bool
	proxyAddress string
	proxyPort    int
	proxyAuth    string
	noUnderscore bool
	params       string
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:   "apicall [flags] <apiGetX|apiPostX|apiCallX> [key=value...]",
	Short: "Call a REST API by operation name",
	Long: `apicall turns an operation name into a request against the configured API.

  apicall -a https://api.example.com apiGetUserList page=2
      GET https://api.example.com/user/list?page=2

  apicall -a https://api.example.com apiPostUserCreate name=bob
      POST https://api.example.com/user/create with body name=bob

API_REMOTE_TIMEOUT and API_ADDRESS are read from the environment.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configFile, "config", "c", "", "YAML or JSON configuration file")
	f.StringVarP(&address, "address", "a", "", "API base address")
	f.IntVarP(&timeout, "timeout", "t", apicall.DefaultTimeout, "timeout in seconds (0 disables)")
	f.BoolVar(&verifyPeer, "verify-peer", false, "verify the server certificate chain")
	f.BoolVar(&verifyHost, "verify-host", false, "verify the server certificate name")
	f.BoolVar(&noIPv4, "no-ipv4", false, "do not restrict name resolution to IPv4")
	f.StringVar(&proxyAddress, "proxy", "", "proxy address, enables proxying")
	f.IntVar(&proxyPort, "proxy-port", 0, "proxy port")
	f.StringVar(&proxyAuth, "proxy-auth", "", "proxy credentials as user:password")
	f.BoolVar(&noUnderscore, "no-underscore", false, "use method names as is")
	f.StringVarP(&params, "params", "p", "", "parameters as JSON object or url encoded string")
	f.BoolVar(&debug, "debug", false, "log requests")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("apicall: %s", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	apicall.Debug = debug

	c, err := buildClient(cmd)
	if err != nil {
		return err
	}

	p, err := parseParams(params, args[1:])
	if err != nil {
		return err
	}

	res, err := c.Call(context.Background(), args[0], p)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res)
	return nil
}

// buildClient applies the environment, then the config file, then any flag
// given on the command line.
func buildClient(cmd *cobra.Command) (*apicall.Client, error) {
	cfg, err := apicall.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		cfg, err = apicall.LoadConfig(configFile, cfg)
		if err != nil {
			return nil, err
		}
	}

	c := apicall.NewWithConfig(cfg)
	f := cmd.Flags()
	if f.Changed("address") {
		c.SetAddress(address)
	}
	if f.Changed("timeout") {
		c.SetTimeout(timeout)
	}
	if verifyPeer {
		c.VerifyPeer()
	}
	if verifyHost {
		c.VerifyHost()
	}
	if noIPv4 {
		c.DoNotUseIPv4Resolve()
	}
	if proxyAddress != "" {
		c.UseProxy().SetProxyAddress(proxyAddress)
	}
	if f.Changed("proxy-port") {
		c.SetProxyPort(proxyPort)
	}
	if proxyAuth != "" {
		c.SetProxyUserPassword(proxyAuth)
	}
	if noUnderscore {
		c.SetUnderscore(false)
	}

	if _, ok := c.Address(); !ok {
		return nil, apicall.ErrNotConfigured
	}
	return c, nil
}

// parseParams merges the --params value with key=value arguments, the latter
// keeping their order on the command line.
func parseParams(raw string, args []string) (apicall.Params, error) {
	var p apicall.Params
	if raw != "" {
		var m map[string]any
		if raw[0] == '{' {
			// json
			if err := pjson.Unmarshal([]byte(raw), &m); err != nil {
				return nil, fmt.Errorf("invalid params: %w", err)
			}
		} else {
			// url encoded
			m = webutil.ParsePhpQuery(raw)
		}
		p = apicall.FromMap(m)
	}

	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", arg)
		}
		p = p.Set(k, v)
	}
	return p, nil
}
