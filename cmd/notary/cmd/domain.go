package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"notary/internal/api"
	"notary/internal/chain"
	"notary/internal/common"
	"notary/internal/eip712"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const rpcTimeout = 15 * time.Second

func (c *command) initDomainCmd() {
	cmd := &cobra.Command{
		Use:   "domain",
		Short: "Compute a domain separator, optionally checking it on chain",
		Long: `Compute a domain separator. With --rpc the name, version and chain id
not given on the command line are read from the contract's eip712Domain()
view, and the result is compared against its DOMAIN_SEPARATOR().`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
			defer cancel()

			client, err := dialRPC(ctx, cmd.Flags())
			if err != nil {
				return err
			}
			if client == nil {
				domain, err := c.resolveDomain(ctx, cmd.Flags(), nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), eip712.DomainSeparator(domain).Hex())
				return nil
			}
			defer client.Close()

			domain, err := c.resolveDomain(ctx, cmd.Flags(), client)
			if err != nil {
				return err
			}
			separator, err := chain.CheckDomain(ctx, client, domain, c.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (matches on-chain)\n", separator.Hex())
			return nil
		},
	}

	addDomainFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired(optionNameContract)

	c.root.AddCommand(cmd)
}

func addDomainFlags(flags *pflag.FlagSet) {
	flags.String(optionNameName, common.NotaryDomainName, "domain name")
	flags.String(optionNameVersion, common.DomainVersion, "domain version")
	flags.String(optionNameChainID, strconv.FormatUint(uint64(common.Polygon), 10), "chain id, decimal or 0x hex")
	flags.String(optionNameContract, "", "verifying contract address")
	flags.String(optionNameRPC, "", "rpc endpoint of the verifying contract's chain")
}

// dialRPC connects to the --rpc endpoint. It returns a nil client when the
// flag is empty.
func dialRPC(ctx context.Context, flags *pflag.FlagSet) (*ethclient.Client, error) {
	rpcURL, err := flags.GetString(optionNameRPC)
	if err != nil || rpcURL == "" {
		return nil, err
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial rpc")
	}
	return client, nil
}

// resolveDomain builds the domain from the domain flags. With a client,
// fields whose flags were left unset come from the contract.
func (c *command) resolveDomain(ctx context.Context, flags *pflag.FlagSet, client *ethclient.Client) (eip712.Domain, error) {
	var params common.DomainParams
	var err error
	if params.Name, err = flags.GetString(optionNameName); err != nil {
		return eip712.Domain{}, err
	}
	if params.Version, err = flags.GetString(optionNameVersion); err != nil {
		return eip712.Domain{}, err
	}
	if params.ChainID, err = flags.GetString(optionNameChainID); err != nil {
		return eip712.Domain{}, err
	}
	if params.VerifyingContract, err = flags.GetString(optionNameContract); err != nil {
		return eip712.Domain{}, err
	}

	unset := !flags.Changed(optionNameName) || !flags.Changed(optionNameVersion) || !flags.Changed(optionNameChainID)
	if client != nil && unset {
		if !ethcommon.IsHexAddress(params.VerifyingContract) {
			return eip712.Domain{}, errors.Wrapf(eip712.ErrSchemaMismatch, "invalid verifyingContract %q", params.VerifyingContract)
		}
		onchain, err := chain.FetchDomain(ctx, client, ethcommon.HexToAddress(params.VerifyingContract))
		if err != nil {
			return eip712.Domain{}, err
		}
		if !flags.Changed(optionNameName) {
			params.Name = onchain.Name
		}
		if !flags.Changed(optionNameVersion) {
			params.Version = onchain.Version
		}
		if !flags.Changed(optionNameChainID) {
			params.ChainID = onchain.ChainID.Dec()
		}
		c.logger.Debug("domain read from contract",
			zap.String("contract", params.VerifyingContract),
			zap.String("name", params.Name),
			zap.String("version", params.Version),
			zap.String("chainId", params.ChainID),
		)
	}

	return api.ParseDomain(params)
}
