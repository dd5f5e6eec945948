package bybit

import (
	"encoding/json"

	"crypto_exec/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	BaseURLMainnet = "https://api.bybit.com"
	BaseURLTestnet = "https://api-testnet.bybit.com"

	pathCreateOrder   = "/v5/order/create"
	pathCancelOrder   = "/v5/order/cancel"
	pathActiveOrders  = "/v5/order/realtime"
	pathHistoryOrders = "/v5/order/history"
	pathSetLeverage   = "/v5/position/set-leverage"

	// retCodeLeverageNotModified is returned when the requested leverage is already set.
	retCodeLeverageNotModified = 110043
)

// apiResponse is the common V5 envelope.
type apiResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

type createOrderRequest struct {
	Category    string `json:"category"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`      // Buy, Sell
	OrderType   string `json:"orderType"` // Limit, Market
	Qty         string `json:"qty"`
	Price       string `json:"price,omitempty"`
	TimeInForce string `json:"timeInForce,omitempty"`
	OrderLinkID string `json:"orderLinkId"`
}

type createOrderResult struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}

type cancelOrderRequest struct {
	Category string `json:"category"`
	Symbol   string `json:"symbol"`
	OrderID  string `json:"orderId"`
}

type setLeverageRequest struct {
	Category     string `json:"category"`
	Symbol       string `json:"symbol"`
	BuyLeverage  string `json:"buyLeverage"`
	SellLeverage string `json:"sellLeverage"`
}

type orderListResult struct {
	Category       string      `json:"category"`
	List           []orderItem `json:"list"`
	NextPageCursor string      `json:"nextPageCursor"`
}

type orderItem struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	OrderStatus string `json:"orderStatus"`
	Price       string `json:"price"`
	Qty         string `json:"qty"`
	AvgPrice    string `json:"avgPrice"`
	CumExecQty  string `json:"cumExecQty"`
}

func (o orderItem) toRecord() domain.OrderRecord {
	avg, err := decimal.NewFromString(o.AvgPrice)
	if err != nil {
		avg = decimal.Zero // "" until the first execution
	}
	return domain.OrderRecord{
		OrderID:  o.OrderID,
		Status:   toOrderStatus(o.OrderStatus),
		AvgPrice: avg,
	}
}

// toOrderStatus maps V5 order statuses onto the domain lifecycle.
func toOrderStatus(s string) domain.OrderStatus {
	switch s {
	case "New", "PartiallyFilled", "Untriggered", "Triggered", "Created":
		return domain.OrderStatusNew
	case "Filled":
		return domain.OrderStatusFilled
	case "Cancelled", "Rejected", "PartiallyFilledCanceled", "Deactivated":
		return domain.OrderStatusCancelled
	default:
		return domain.OrderStatusUnknown
	}
}

func toWireSide(side string) string {
	if side == domain.SideSell {
		return "Sell"
	}
	return "Buy"
}

func toWireOrderType(orderType string) string {
	if orderType == domain.OrderTypeMarket {
		return "Market"
	}
	return "Limit"
}
