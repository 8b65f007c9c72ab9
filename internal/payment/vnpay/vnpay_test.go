package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(Config{
		PaymentURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		TmnCode:    "TESTCODE",
		HashSecret: "SECRETKEY",
	})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 3, 4, 1, 2, 3, 0, time.UTC) }
	return c
}

func TestBuildPaymentURL(t *testing.T) {
	c := newTestClient(t)
	raw, err := c.BuildPaymentURL(PaymentRequest{
		OrderID:   "order-1",
		Amount:    150000,
		ReturnURL: "https://shop.example.com/payment/vnpay-return",
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.vnpayment.vn", u.Host)
	q := u.Query()
	assert.Equal(t, "15000000", q.Get("vnp_Amount"))
	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
	assert.Equal(t, "order-1", q.Get("vnp_TxnRef"))
	assert.Equal(t, "Thanh toan don hang order-1", q.Get("vnp_OrderInfo"))
	assert.Equal(t, "127.0.0.1", q.Get("vnp_IpAddr"))
	assert.Equal(t, "20260304080203", q.Get("vnp_CreateDate"))
	assert.Len(t, q.Get("vnp_SecureHash"), 128)

	// Parameters are signed in key order.
	signData := raw[strings.Index(raw, "?")+1 : strings.Index(raw, "&vnp_SecureHash=")]
	assert.Equal(t, c.sign(signData), q.Get("vnp_SecureHash"))
	q.Del("vnp_SecureHash")
	assert.Equal(t, q.Encode(), signData)
}

func TestBuildPaymentURLValidation(t *testing.T) {
	c := newTestClient(t)
	for _, req := range []PaymentRequest{
		{Amount: 1, ReturnURL: "x"},
		{OrderID: "o", ReturnURL: "x"},
		{OrderID: "o", Amount: 1},
	} {
		_, err := c.BuildPaymentURL(req)
		require.ErrorIs(t, err, domain.ErrValidation)
	}
}

func gatewayReturn(c *Client, code string) url.Values {
	q := url.Values{}
	q.Set("vnp_Amount", "15000000")
	q.Set("vnp_BankCode", "NCB")
	q.Set("vnp_OrderInfo", "Thanh toan don hang order-1")
	q.Set("vnp_ResponseCode", code)
	q.Set("vnp_TmnCode", "TESTCODE")
	q.Set("vnp_TransactionNo", "14000001")
	q.Set("vnp_TxnRef", "order-1")
	q.Set("vnp_SecureHash", c.sign(q.Encode()))
	q.Set("vnp_SecureHashType", "HmacSHA512")
	return q
}

func TestVerifyRoundTrip(t *testing.T) {
	c := newTestClient(t)

	res, err := c.Verify(gatewayReturn(c, "00"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "order-1", res.OrderID)
	assert.Equal(t, int64(150000), res.Amount)
	assert.Equal(t, "14000001", res.TransactionNo)

	res, err = c.Verify(gatewayReturn(c, "24"))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "24", res.ResponseCode)
}

func TestVerifyDetectsTampering(t *testing.T) {
	c := newTestClient(t)

	q := gatewayReturn(c, "24")
	q.Set("vnp_ResponseCode", "00")
	_, err := c.Verify(q)
	require.ErrorIs(t, err, domain.ErrSignatureMismatch)

	q = gatewayReturn(c, "00")
	q.Del("vnp_SecureHash")
	_, err = c.Verify(q)
	require.ErrorIs(t, err, domain.ErrSignatureMismatch)

	other, err := New(Config{PaymentURL: "https://x", TmnCode: "T", HashSecret: "OTHER"})
	require.NoError(t, err)
	_, err = other.Verify(gatewayReturn(c, "00"))
	require.ErrorIs(t, err, domain.ErrSignatureMismatch)
}

func TestVerifyAcceptsUppercaseHash(t *testing.T) {
	c := newTestClient(t)
	q := gatewayReturn(c, "00")
	q.Set("vnp_SecureHash", strings.ToUpper(q.Get("vnp_SecureHash")))
	_, err := c.Verify(q)
	require.NoError(t, err)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(Config{PaymentURL: "https://x"})
	require.Error(t, err)
}
