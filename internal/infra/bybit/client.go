package bybit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crypto_exec/internal/domain"
	"crypto_exec/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// Client is the Bybit V5 REST API Client (Boundary Layer).
// It implements domain.ExchangeGateway.
type Client struct {
	baseURL    string
	category   string
	httpClient *http.Client
	signer     *Signer
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ domain.ExchangeGateway = (*Client)(nil)

// NewClient creates a new Bybit API client.
func NewClient(cfg *infra.Config, logger *slog.Logger) *Client {
	baseURL := cfg.Exchange.BaseURL
	if baseURL == "" {
		baseURL = BaseURLMainnet
		if cfg.Exchange.Testnet {
			baseURL = BaseURLTestnet
		}
	}

	timeout := time.Duration(cfg.Exchange.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	perSec := cfg.Exchange.RateLimitPerSec
	if perSec <= 0 {
		perSec = 10
	}
	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:  baseURL,
		category: cfg.Execution.Category,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		signer:  NewSigner(cfg.Exchange.APIKey, cfg.Exchange.SecretKey, cfg.Exchange.RecvWindowMS),
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
		logger:  logger.With("module", "bybit_client"),
	}
}

// SubmitOrder sends an order to the exchange.
// Boundary Conversion: decimal -> string happens here and nowhere else.
func (c *Client) SubmitOrder(ctx context.Context, req domain.SubmitOrderRequest) (domain.SubmitOrderResponse, error) {
	category := req.Category
	if category == "" {
		category = c.category
	}

	body := createOrderRequest{
		Category:    category,
		Symbol:      req.Symbol,
		Side:        toWireSide(req.Side),
		OrderType:   toWireOrderType(req.OrderType),
		Qty:         req.Qty.String(),
		OrderLinkID: uuid.NewString(),
	}
	if req.OrderType != domain.OrderTypeMarket {
		body.Price = req.Price.String()
		body.TimeInForce = req.TimeInForce
	}

	resp, err := c.post(ctx, "submit_order", pathCreateOrder, body)
	if err != nil {
		return domain.SubmitOrderResponse{}, err
	}

	out := domain.SubmitOrderResponse{RetCode: resp.RetCode, RetMsg: resp.RetMsg}
	if resp.RetCode != domain.ResultCodeOK {
		return out, nil
	}

	var result createOrderResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return domain.SubmitOrderResponse{}, domain.NewFatalNetworkError("submit_order", fmt.Errorf("failed to parse result: %w", err))
	}
	out.OrderID = result.OrderID

	c.logger.Info("Order Placed Successfully",
		slog.String("order_id", result.OrderID),
		slog.String("link_id", result.OrderLinkID),
		slog.String("symbol", req.Symbol))
	return out, nil
}

// GetActiveOrders lists open orders for symbol.
func (c *Client) GetActiveOrders(ctx context.Context, symbol string) (domain.OrderListResponse, error) {
	return c.listOrders(ctx, "active_orders", pathActiveOrders, symbol)
}

// GetHistoricOrders lists recently closed orders for symbol.
func (c *Client) GetHistoricOrders(ctx context.Context, symbol string) (domain.OrderListResponse, error) {
	return c.listOrders(ctx, "historic_orders", pathHistoryOrders, symbol)
}

func (c *Client) listOrders(ctx context.Context, op, path, symbol string) (domain.OrderListResponse, error) {
	query := url.Values{}
	query.Set("category", c.category)
	query.Set("symbol", symbol)
	query.Set("limit", "50")

	resp, err := c.get(ctx, op, path, query)
	if err != nil {
		return domain.OrderListResponse{}, err
	}

	out := domain.OrderListResponse{RetCode: resp.RetCode, RetMsg: resp.RetMsg}
	if resp.RetCode != domain.ResultCodeOK {
		return out, nil
	}

	var result orderListResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return domain.OrderListResponse{}, domain.NewNetworkError(op, fmt.Errorf("failed to parse result: %w", err))
	}

	out.List = make([]domain.OrderRecord, 0, len(result.List))
	for _, item := range result.List {
		out.List = append(out.List, item.toRecord())
	}
	return out, nil
}

// CancelOrder sends a cancel request. "Order not exists" comes back as a
// non-zero RetCode, not an error.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) (domain.CancelOrderResponse, error) {
	body := cancelOrderRequest{
		Category: c.category,
		Symbol:   symbol,
		OrderID:  orderID,
	}

	resp, err := c.post(ctx, "cancel_order", pathCancelOrder, body)
	if err != nil {
		return domain.CancelOrderResponse{}, err
	}
	return domain.CancelOrderResponse{RetCode: resp.RetCode, RetMsg: resp.RetMsg}, nil
}

// OpenPosition sets leverage and opens the position with a market order.
// Any non-zero result code is returned as *domain.APIError.
func (c *Client) OpenPosition(ctx context.Context, req domain.PositionRequest) (string, error) {
	if req.Leverage > 0 {
		if err := c.setLeverage(ctx, req.Symbol, req.Leverage); err != nil {
			return "", err
		}
	}

	resp, err := c.SubmitOrder(ctx, domain.SubmitOrderRequest{
		Category:  c.category,
		Symbol:    req.Symbol,
		Side:      req.Side,
		OrderType: domain.OrderTypeMarket,
		Qty:       req.Quantity,
		Price:     decimal.Zero,
	})
	if err != nil {
		return "", err
	}
	if resp.RetCode != domain.ResultCodeOK {
		return "", &domain.APIError{Op: "open_position", Code: resp.RetCode, Msg: resp.RetMsg}
	}
	return resp.OrderID, nil
}

func (c *Client) setLeverage(ctx context.Context, symbol string, leverage int) error {
	lev := strconv.Itoa(leverage)
	resp, err := c.post(ctx, "set_leverage", pathSetLeverage, setLeverageRequest{
		Category:     c.category,
		Symbol:       symbol,
		BuyLeverage:  lev,
		SellLeverage: lev,
	})
	if err != nil {
		return err
	}
	if resp.RetCode != domain.ResultCodeOK && resp.RetCode != retCodeLeverageNotModified {
		return &domain.APIError{Op: "set_leverage", Code: resp.RetCode, Msg: resp.RetMsg}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, query url.Values) (*apiResponse, error) {
	encoded := query.Encode()
	return c.doRequest(ctx, op, http.MethodGet, path+"?"+encoded, encoded, nil)
}

func (c *Client) post(ctx context.Context, op, path string, body interface{}) (*apiResponse, error) {
	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return nil, domain.NewFatalNetworkError(op, err)
	}
	return c.doRequest(ctx, op, http.MethodPost, path, string(jsonBytes), jsonBytes)
}

// doRequest handles rate limiting, auth headers and envelope decoding.
// Every failure before a decoded envelope is a *domain.NetworkError.
func (c *Client) doRequest(ctx context.Context, op, method, pathAndQuery, payload string, body []byte) (*apiResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.NewFatalNetworkError(op, err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, bodyReader)
	if err != nil {
		return nil, domain.NewFatalNetworkError(op, err)
	}

	for k, v := range c.signer.GenerateHeaders(payload) {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError(op, err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("http status=%d body=%s", resp.StatusCode, string(bodyBytes))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, domain.NewNetworkError(op, statusErr)
		}
		return nil, domain.NewFatalNetworkError(op, statusErr)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, domain.NewNetworkError(op, fmt.Errorf("failed to parse response: %w", err))
	}

	if apiResp.RetCode != domain.ResultCodeOK {
		c.logger.Debug("Bybit business error",
			slog.String("op", op),
			slog.Int("code", apiResp.RetCode),
			slog.String("msg", apiResp.RetMsg))
	}
	return &apiResp, nil
}
