package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"shieldpool/internal/config"
	"shieldpool/internal/metrics"
	"shieldpool/internal/pool"
)

// VerifierClient is the HTTP proof verifier client. It implements
// pool.ProofVerifier against the external proving service.
type VerifierClient struct {
	BaseURL string
	Client  *http.Client
	log     *logrus.Entry
}

// NewVerifierClient creates a new verifier client
func NewVerifierClient(baseURL string, logger *logrus.Logger) *VerifierClient {
	timeout := 60 * time.Second
	if config.AppConfig != nil && config.AppConfig.Verifier.Timeout > 0 {
		timeout = time.Duration(config.AppConfig.Verifier.Timeout) * time.Second
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &VerifierClient{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: timeout,
		},
		log: logger.WithField("component", "verifier_client"),
	}
}

// VerifyProofRequest is the verify endpoint request body
type VerifyProofRequest struct {
	Kind         string   `json:"kind"`          // deposit | transfer | withdraw
	Proof        string   `json:"proof"`         // hex encoded proof bytes
	PublicInputs []string `json:"public_inputs"` // hex encoded 32-byte words, order fixed per kind
}

// VerifyProofResponse is the verify endpoint response body
type VerifyProofResponse struct {
	Success      bool    `json:"success"`
	Valid        bool    `json:"valid"`
	ErrorMessage *string `json:"error_message"`
}

func proofKindName(kind pool.ProofKind) string {
	switch kind {
	case pool.ProofDeposit:
		return "deposit"
	case pool.ProofTransfer:
		return "transfer"
	case pool.ProofWithdraw:
		return "withdraw"
	default:
		return "unknown"
	}
}

// Verify posts the proof and its public inputs to the verifier service. A
// well-formed negative answer is (false, nil); transport and service errors
// are returned as errors so the caller can distinguish rejection from outage.
func (c *VerifierClient) Verify(kind pool.ProofKind, proof []byte, publicInputs []common.Hash) (bool, error) {
	kindName := proofKindName(kind)
	start := time.Now()

	inputs := make([]string, len(publicInputs))
	for i, in := range publicInputs {
		inputs[i] = in.Hex()
	}

	reqBody := VerifyProofRequest{
		Kind:         kindName,
		Proof:        hexutil.Encode(proof),
		PublicInputs: inputs,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return false, fmt.Errorf("marshal verify request: %w", err)
	}

	url := c.BaseURL + "/api/v1/verify"
	resp, err := c.Client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		metrics.VerifierRequests.WithLabelValues(kindName, "transport_error").Inc()
		return false, fmt.Errorf("verifier request: %w", err)
	}
	defer resp.Body.Close()

	metrics.VerifierRequestDuration.WithLabelValues(kindName).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.VerifierRequests.WithLabelValues(kindName, "transport_error").Inc()
		return false, fmt.Errorf("read verifier response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.VerifierRequests.WithLabelValues(kindName, "http_error").Inc()
		return false, fmt.Errorf("verifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var verifyResp VerifyProofResponse
	if err := json.Unmarshal(body, &verifyResp); err != nil {
		metrics.VerifierRequests.WithLabelValues(kindName, "decode_error").Inc()
		return false, fmt.Errorf("decode verifier response: %w", err)
	}

	if !verifyResp.Success {
		msg := "unknown error"
		if verifyResp.ErrorMessage != nil {
			msg = *verifyResp.ErrorMessage
		}
		metrics.VerifierRequests.WithLabelValues(kindName, "service_error").Inc()
		return false, fmt.Errorf("verifier error: %s", msg)
	}

	if verifyResp.Valid {
		metrics.VerifierRequests.WithLabelValues(kindName, "valid").Inc()
	} else {
		metrics.VerifierRequests.WithLabelValues(kindName, "invalid").Inc()
		c.log.WithFields(logrus.Fields{
			"kind":   kindName,
			"inputs": len(publicInputs),
		}).Warn("proof rejected by verifier")
	}

	return verifyResp.Valid, nil
}
