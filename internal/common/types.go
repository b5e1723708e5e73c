package common

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"
)

/*
Query parameters of the domain separator endpoint:

	GET /eip712/v1.0/domain/separator?name=..&version=..&chainId=..&verifyingContract=..
*/
type DomainParams struct {
	Name              string `schema:"name" json:"name"`
	Version           string `schema:"version" json:"version"`
	ChainID           string `schema:"chainId" json:"chainId"`
	VerifyingContract string `schema:"verifyingContract" json:"verifyingContract"`
}

type DomainSeparatorResponse struct {
	DomainSeparator string `json:"domainSeparator"`
}

/*
DigestRequest is an eth_signTypedData_v4 payload with an optional
expected signer:

	{
		"types": {...},
		"primaryType": "Reward",
		"domain": {...},
		"message": {...},
		"signer": "0x..."
	}
*/
type DigestRequest struct {
	apitypes.TypedData
	Signer string `json:"signer,omitempty"`
}

// UnmarshalJSON keeps message numbers as json.Number so integers beyond
// 2^53 reach the encoder intact.
func (r *DigestRequest) UnmarshalJSON(data []byte) error {
	var alias struct {
		Signer string `json:"signer,omitempty"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&r.TypedData); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	r.Signer = alias.Signer
	return nil
}

type DigestResponse struct {
	ID              uuid.UUID `json:"id"`
	Digest          string    `json:"digest"`
	DomainSeparator string    `json:"domainSeparator"`
	TypeHash        string    `json:"typeHash"`
	StructHash      string    `json:"structHash"`
	ExpiresAt       time.Time `json:"expiresAt"`
}

type VerifyRequest struct {
	Digest    string `json:"digest"`
	Signature string `json:"signature"`
}

type VerifyResponse struct {
	Signer string `json:"signer"`
	Valid  bool   `json:"valid"`
}

// DigestStatus is the lifecycle state of a registered digest.
type DigestStatus string

const (
	DigestPending DigestStatus = "pending"
	DigestSigned  DigestStatus = "signed"
)

type DigestStatusResponse struct {
	ID          uuid.UUID      `json:"id"`
	Digest      string         `json:"digest"`
	PrimaryType string         `json:"primaryType"`
	Domain      DomainParams   `json:"domain"`
	Message     map[string]any `json:"message"`
	Signer      string         `json:"signer,omitempty"`
	Status      DigestStatus   `json:"status"`
	Signature   string         `json:"signature,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
