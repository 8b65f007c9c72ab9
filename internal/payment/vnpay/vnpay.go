// Package vnpay builds signed VNPay payment URLs and verifies the parameters
// VNPay sends back to the return URL.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	version        = "2.1.0"
	commandPay     = "pay"
	currencyVND    = "VND"
	orderTypeBill  = "billpayment"
	localeVN       = "vn"
	dateLayout     = "20060102150405"
	paramHash      = "vnp_SecureHash"
	paramHashType  = "vnp_SecureHashType"
	responseOK     = "00"
	defaultIPAddr  = "127.0.0.1"
	amountMultiple = 100
)

// vnpayZone is the gateway's local time (GMT+7) used for vnp_CreateDate.
var vnpayZone = time.FixedZone("ICT", 7*60*60)

type Config struct {
	PaymentURL string
	TmnCode    string
	HashSecret string
}

type Client struct {
	cfg Config
	now func() time.Time
}

func New(cfg Config) (*Client, error) {
	if cfg.PaymentURL == "" || cfg.TmnCode == "" || cfg.HashSecret == "" {
		return nil, errors.New("vnpay: payment url, tmn code and hash secret are required")
	}
	if _, err := url.Parse(cfg.PaymentURL); err != nil {
		return nil, fmt.Errorf("vnpay: payment url: %w", err)
	}
	return &Client{cfg: cfg, now: time.Now}, nil
}

type PaymentRequest struct {
	OrderID   string
	Amount    int64
	ReturnURL string
	ClientIP  string
}

// BuildPaymentURL returns the gateway URL the buyer is redirected to.
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	if req.OrderID == "" {
		return "", domain.Invalid("orderId", "required")
	}
	if req.Amount <= 0 {
		return "", domain.Invalid("amount", "must be positive")
	}
	if req.ReturnURL == "" {
		return "", domain.Invalid("returnUrl", "required")
	}
	ip := strings.TrimSpace(req.ClientIP)
	if ip == "" {
		ip = defaultIPAddr
	}

	params := url.Values{}
	params.Set("vnp_Version", version)
	params.Set("vnp_Command", commandPay)
	params.Set("vnp_TmnCode", c.cfg.TmnCode)
	params.Set("vnp_Amount", decimal.NewFromInt(req.Amount).Mul(decimal.NewFromInt(amountMultiple)).String())
	params.Set("vnp_CurrCode", currencyVND)
	params.Set("vnp_TxnRef", req.OrderID)
	params.Set("vnp_OrderInfo", "Thanh toan don hang "+req.OrderID)
	params.Set("vnp_OrderType", orderTypeBill)
	params.Set("vnp_Locale", localeVN)
	params.Set("vnp_ReturnUrl", req.ReturnURL)
	params.Set("vnp_IpAddr", ip)
	params.Set("vnp_CreateDate", c.now().In(vnpayZone).Format(dateLayout))

	signData := params.Encode()
	return c.cfg.PaymentURL + "?" + signData + "&" + paramHash + "=" + c.sign(signData), nil
}

type Result struct {
	OrderID       string
	ResponseCode  string
	TransactionNo string
	Amount        int64
	Success       bool
}

// Verify checks the secure hash over every returned vnp_ parameter except
// the hash fields themselves.
func (c *Client) Verify(query url.Values) (Result, error) {
	got := query.Get(paramHash)
	if got == "" {
		return Result{}, fmt.Errorf("%w: missing %s", domain.ErrSignatureMismatch, paramHash)
	}

	signed := url.Values{}
	for k, v := range query {
		if k == paramHash || k == paramHashType || !strings.HasPrefix(k, "vnp_") {
			continue
		}
		signed[k] = v
	}
	want := c.sign(signed.Encode())
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(want)) {
		return Result{}, domain.ErrSignatureMismatch
	}

	res := Result{
		OrderID:       signed.Get("vnp_TxnRef"),
		ResponseCode:  signed.Get("vnp_ResponseCode"),
		TransactionNo: signed.Get("vnp_TransactionNo"),
	}
	if raw := signed.Get("vnp_Amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return Result{}, domain.Invalid("vnp_Amount", "not a number")
		}
		res.Amount = amount.Div(decimal.NewFromInt(amountMultiple)).IntPart()
	}
	if res.OrderID == "" {
		return Result{}, domain.Invalid("vnp_TxnRef", "required")
	}
	res.Success = res.ResponseCode == responseOK
	return res, nil
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
