package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundsHalfUp(t *testing.T) {
	assert.Equal(t, "1.01", MustParse("1.005").String())
	assert.Equal(t, "1.00", MustParse("1.0049").String())
	assert.Equal(t, "7.20", MustParse("60").MulRate(decimal.RequireFromString("0.12")).String())
}

func TestSubtotalsAndSum(t *testing.T) {
	total := Sum(MustParse("9.99").MulInt(2), MustParse("5.00").MulInt(1))
	assert.Equal(t, "24.98", total.String())
	assert.True(t, total.Equal(MustParse("24.98")))
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Price Amount `json:"price"`
	}{Price: MustParse("20")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":20.00}`, string(b))
	assert.Contains(t, string(b), "20.00")

	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12.345,"b":"3.1"}`), &v))
	assert.Equal(t, "12.35", v.A.String())
	assert.Equal(t, "3.10", v.B.String())
}

func TestScanAndValue(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan("42.5"))
	assert.Equal(t, "42.50", a.String())

	v, err := a.Value()
	require.NoError(t, err)
	assert.Equal(t, "42.50", v)
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(720), MustParse("7.20").Cents())
	assert.Equal(t, "1.99", FromCents(199).String())
}
