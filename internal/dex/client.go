package dex

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// ClientConfig holds connection parameters for the Polygon RPC endpoint.
type ClientConfig struct {
	RPCURL      string
	DialTimeout time.Duration
}

// Client wraps a JSON-RPC connection to a Polygon node. It resolves ERC-20
// token precision via eth_call and hands its underlying caller to the router
// quoters.
type Client struct {
	ec     *ethclient.Client
	logger *slog.Logger
}

// New dials the configured RPC endpoint. Dialing is bounded by
// cfg.DialTimeout so a dead endpoint fails startup quickly instead of
// hanging.
func New(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	ec, err := ethclient.DialContext(dialCtx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dex: dial rpc: %w", err)
	}

	return &Client{
		ec:     ec,
		logger: logger.With(slog.String("component", "chain_client")),
	}, nil
}

// DecimalsOf resolves a token's declared precision with an eth_call to the
// ERC-20 decimals() view. Failures wrap domain.ErrPrecisionLookup so callers
// can classify them without inspecting the RPC error text.
func (c *Client) DecimalsOf(ctx context.Context, token common.Address) (uint8, error) {
	input, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("dex: pack decimals: %w", err)
	}

	res, err := c.ec.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return 0, fmt.Errorf("dex: decimals call for %s: %w: %w", token.Hex(), domain.ErrPrecisionLookup, err)
	}

	outs, err := erc20ABI.Methods["decimals"].Outputs.Unpack(res)
	if err != nil {
		return 0, fmt.Errorf("dex: decode decimals for %s: %w: %w", token.Hex(), domain.ErrPrecisionLookup, err)
	}
	if len(outs) == 0 {
		return 0, fmt.Errorf("dex: decode decimals for %s: %w: empty return data", token.Hex(), domain.ErrPrecisionLookup)
	}

	// Non-standard tokens occasionally declare decimals as uint256.
	switch v := outs[0].(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("dex: decimals for %s out of range: %w", token.Hex(), domain.ErrPrecisionLookup)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("dex: unexpected decimals type %T for %s: %w", outs[0], token.Hex(), domain.ErrPrecisionLookup)
	}
}

// ChainID reports the connected network's chain identifier.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.ec.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("dex: chain id: %w", err)
	}
	return id, nil
}

// Health verifies the RPC connection by fetching the current block number.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.ec.BlockNumber(ctx); err != nil {
		return fmt.Errorf("dex: health: %w", err)
	}
	return nil
}

// Caller exposes the underlying contract caller for the router quoters.
func (c *Client) Caller() ethereum.ContractCaller {
	return c.ec
}

// Close tears down the RPC connection.
func (c *Client) Close() {
	c.ec.Close()
}

var _ domain.DecimalsSource = (*Client)(nil)
