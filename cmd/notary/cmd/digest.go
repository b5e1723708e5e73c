package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"notary/internal/chain"
	"notary/internal/eip712"
	"notary/internal/hash"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *command) initDigestCmd() {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Compute the signing digest of typed data",
		Long: `Compute the signing digest of an eth_signTypedData_v4 file (--file), or of
a known Arkreen message (--schema with --message and the domain flags).
In schema mode a missing nonce is read from the contract when --rpc is set,
and the digest the contract itself recovers from is printed as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := cmd.Flags().GetString(optionNameSchema)
			if err != nil {
				return err
			}
			if schema != "" {
				return c.digestSchema(cmd, schema)
			}

			file, err := cmd.Flags().GetString(optionNameFile)
			if err != nil {
				return err
			}

			typedData, err := readTypedData(file)
			if err != nil {
				return err
			}

			domain, desc, msg, err := hash.FromTypedData(typedData)
			if err != nil {
				return err
			}
			res, err := eip712.Compute(domain, desc, msg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "domainSeparator %s\n", res.DomainSeparator.Hex())
			fmt.Fprintf(out, "typeHash        %s\n", res.TypeHash.Hex())
			fmt.Fprintf(out, "structHash      %s\n", res.StructHash.Hex())
			fmt.Fprintf(out, "digest          %s\n", res.Digest.Hex())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String(optionNameFile, "", "path to the typed data JSON")
	flags.String(optionNameSchema, "", "message schema: "+strings.Join(hash.Schemas, ", "))
	flags.String(optionNameMessage, "", "path to the message JSON for --schema")
	addDomainFlags(flags)
	cmd.MarkFlagsOneRequired(optionNameFile, optionNameSchema)
	cmd.MarkFlagsMutuallyExclusive(optionNameFile, optionNameSchema)
	cmd.MarkFlagsRequiredTogether(optionNameSchema, optionNameMessage)

	c.root.AddCommand(cmd)
}

func (c *command) digestSchema(cmd *cobra.Command, schema string) error {
	file, err := cmd.Flags().GetString(optionNameMessage)
	if err != nil {
		return err
	}
	msg, err := readMessage(file)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
	defer cancel()
	client, err := dialRPC(ctx, cmd.Flags())
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	domain, err := c.resolveDomain(ctx, cmd.Flags(), client)
	if err != nil {
		return err
	}

	if _, ok := msg["nonce"]; !ok && client != nil {
		field := hash.NonceOwner(schema)
		owner, _ := msg[field].(string)
		if !ethcommon.IsHexAddress(owner) {
			return errors.Wrapf(eip712.ErrSchemaMismatch, "invalid %s %q", field, owner)
		}
		nonce, err := chain.FetchNonce(ctx, client, domain.VerifyingContract, ethcommon.HexToAddress(owner))
		if err != nil {
			return err
		}
		c.logger.Debug("nonce read from contract", zap.String(field, owner), zap.String("nonce", nonce.String()))
		msg["nonce"] = nonce
	}

	typed, err := hash.FromMessage(schema, msg)
	if err != nil {
		return err
	}
	digest, err := hash.Digest(domain, typed)
	if err != nil {
		return err
	}
	contractDigest, err := hash.ContractDigest(domain, typed)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "domainSeparator %s\n", eip712.DomainSeparator(domain).Hex())
	fmt.Fprintf(out, "digest          %s\n", digest.Hex())
	fmt.Fprintf(out, "contractDigest  %s\n", contractDigest.Hex())
	return nil
}

// readTypedData decodes an eth_signTypedData_v4 file, keeping message
// numbers as json.Number.
func readTypedData(file string) (apitypes.TypedData, error) {
	f, err := os.Open(file)
	if err != nil {
		return apitypes.TypedData{}, errors.Wrap(err, "failed to read typed data")
	}
	defer f.Close()

	var typedData apitypes.TypedData
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&typedData); err != nil {
		return apitypes.TypedData{}, errors.Wrap(err, "failed to decode typed data")
	}
	return typedData, nil
}

func readMessage(file string) (eip712.Message, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read message")
	}
	defer f.Close()

	var msg eip712.Message
	dec := json.NewDecoder(f)
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		return nil, errors.Wrap(err, "failed to decode message")
	}
	return msg, nil
}
