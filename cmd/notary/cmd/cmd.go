// Package cmd wires the notary command line: the long running service and
// one-shot digest and domain separator helpers.
package cmd

import (
	"io"

	"notary/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	optionNameEnvFile  = "env-file"
	optionNameFile     = "file"
	optionNameName     = "name"
	optionNameVersion  = "version"
	optionNameChainID  = "chain-id"
	optionNameContract = "contract"
	optionNameRPC      = "rpc"
	optionNameSchema   = "schema"
	optionNameMessage  = "message"
)

func init() {
	cobra.EnableCommandSorting = false
}

type command struct {
	root    *cobra.Command
	envFile string
	config  *viper.Viper
	cfg     *config.Config
	logger  *zap.Logger
}

type option func(*command)

func newCommand(opts ...option) (c *command, err error) {
	c = &command{
		root: &cobra.Command{
			Use:           "notary",
			Short:         "EIP-712 typed data digest service",
			SilenceErrors: true,
			SilenceUsage:  true,
			PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
				return c.initConfig(cmd)
			},
		},
	}

	for _, o := range opts {
		o(c)
	}

	c.initGlobalFlags()
	c.initServeCmd()
	c.initDigestCmd()
	c.initDomainCmd()

	return c, nil
}

func (c *command) Execute() (err error) {
	defer func() {
		if c.logger != nil {
			_ = c.logger.Sync()
		}
	}()
	return c.root.Execute()
}

// Execute parses command line arguments and runs appropriate functions.
func Execute() (err error) {
	c, err := newCommand()
	if err != nil {
		return err
	}
	return c.Execute()
}

// WithArgs sets the command line arguments, mostly for tests.
func WithArgs(a ...string) func(c *command) {
	return func(c *command) {
		c.root.SetArgs(a)
	}
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) func(c *command) {
	return func(c *command) {
		c.root.SetOut(w)
	}
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *zap.Logger) func(c *command) {
	return func(c *command) {
		c.logger = l
	}
}

func (c *command) initGlobalFlags() {
	globalFlags := c.root.PersistentFlags()
	globalFlags.StringVar(&c.envFile, optionNameEnvFile, ".env", "env file read before the process environment")
	globalFlags.String(config.OptionNameLogLevel, config.DefaultLogLevel, "log level: debug, info, warn or error")
	globalFlags.Bool(config.OptionNameDevMode, false, "human readable development logging")
}

func (c *command) initConfig(cmd *cobra.Command) (err error) {
	c.config = config.New()
	if err := c.config.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if c.cfg, err = config.Load(c.config, c.envFile); err != nil {
		return err
	}
	if c.logger == nil {
		if c.logger, err = c.cfg.NewLogger(); err != nil {
			return err
		}
	}
	return nil
}
