package api

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strings"

	"notary/internal/common"
	"notary/internal/eip712"
	"notary/internal/hash"
	"notary/internal/manager"
	"notary/internal/signer"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func (s *APIServer) RegisterRoutes() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.DefaultHandler)

	router.GET("/eip712/v1.0/domain/separator", s.GetDomainSeparator)
	router.POST("/eip712/v1.0/digest", s.SubmitDigest)
	router.POST("/eip712/v1.0/verify", s.VerifySignature)
	router.GET("/eip712/v1.0/digest/:digest", s.GetDigestStatus)
	// Wrap the router with CORS middleware
	return s.corsMiddleware(router)
}

func (s *APIServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-CSRF-Token")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ParseDomain converts plain domain parameters into a Domain. chainId may
// be decimal or 0x-prefixed hex.
func ParseDomain(params common.DomainParams) (eip712.Domain, error) {
	chainID, ok := new(big.Int), false
	if strings.HasPrefix(params.ChainID, "0x") {
		chainID, ok = chainID.SetString(params.ChainID[2:], 16)
	} else {
		chainID, ok = chainID.SetString(params.ChainID, 10)
	}
	if !ok || chainID.Sign() < 0 {
		return eip712.Domain{}, errors.Wrapf(eip712.ErrSchemaMismatch, "invalid chainId %q", params.ChainID)
	}
	id, overflow := uint256.FromBig(chainID)
	if overflow {
		return eip712.Domain{}, errors.Wrapf(eip712.ErrSchemaMismatch, "chainId %q overflows uint256", params.ChainID)
	}

	contract, err := hexutil.Decode(params.VerifyingContract)
	if err != nil || len(contract) != ethcommon.AddressLength {
		return eip712.Domain{}, errors.Wrapf(eip712.ErrSchemaMismatch, "invalid verifyingContract %q", params.VerifyingContract)
	}

	return eip712.Domain{
		Name:              params.Name,
		Version:           params.Version,
		ChainID:           id,
		VerifyingContract: ethcommon.BytesToAddress(contract),
	}, nil
}

func parseDigest(s string) (ethcommon.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != ethcommon.HashLength {
		return ethcommon.Hash{}, errors.Errorf("invalid digest %q", s)
	}
	return ethcommon.BytesToHash(b), nil
}

// statusFor maps validation errors to 400 and everything else to 500.
func statusFor(err error) int {
	if errors.Is(err, eip712.ErrSchemaMismatch) || errors.Is(err, eip712.ErrUnsupportedType) || errors.Is(err, signer.ErrInvalidSignature) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *APIServer) GetDomainSeparator(c *gin.Context) {
	var params common.DomainParams
	if err := s.decoder.Decode(&params, c.Request.URL.Query()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	domain, err := ParseDomain(params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, common.DomainSeparatorResponse{
		DomainSeparator: eip712.DomainSeparator(domain).Hex(),
	})
}

func (s *APIServer) SubmitDigest(c *gin.Context) {
	body := c.Request.Body
	defer body.Close()

	req := common.DigestRequest{}
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.logger.Debug("failed to decode typed data", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid typed data"})
		return
	}

	domain, desc, msg, err := hash.FromTypedData(req.TypedData)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	res, err := eip712.Compute(domain, desc, msg)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	entry := &manager.DigestEntry{
		Digest:      res.Digest,
		Domain:      domain,
		PrimaryType: desc.Name,
		Message:     req.Message,
	}
	if req.Signer != "" {
		addr, err := hexutil.Decode(req.Signer)
		if err != nil || len(addr) != ethcommon.AddressLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signer address"})
			return
		}
		signerAddr := ethcommon.BytesToAddress(addr)
		entry.Signer = &signerAddr
	}

	if err := s.manager.SetDigest(entry); err != nil {
		s.logger.Error("failed to register digest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register digest"})
		return
	}

	c.JSON(http.StatusOK, common.DigestResponse{
		ID:              entry.ID,
		Digest:          res.Digest.Hex(),
		DomainSeparator: res.DomainSeparator.Hex(),
		TypeHash:        res.TypeHash.Hex(),
		StructHash:      res.StructHash.Hex(),
		ExpiresAt:       entry.ExpiresAt,
	})
}

func (s *APIServer) VerifySignature(c *gin.Context) {
	var req common.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verify request"})
		return
	}

	digest, err := parseDigest(req.Digest)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature encoding"})
		return
	}

	res, err := s.manager.Verify(digest, sig)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("signature verified",
		zap.String("digest", digest.Hex()),
		zap.String("signer", res.Signer.Hex()),
		zap.Bool("valid", res.Valid),
	)
	c.JSON(http.StatusOK, common.VerifyResponse{Signer: res.Signer.Hex(), Valid: res.Valid})
}

func (s *APIServer) GetDigestStatus(c *gin.Context) {
	digest, err := parseDigest(c.Param("digest"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := s.manager.GetDigest(digest)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Digest not found"})
		return
	}

	c.JSON(http.StatusOK, entry.Snapshot())
}

func (s *APIServer) DefaultHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "notary",
		"subscribers": s.manager.Receivers(),
	})
}
