package reservation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want Money
	}{
		{"150", 15000},
		{"150.00", 15000},
		{"150.5", 15050},
		{"0.01", 1},
		{".5", 50},
		{"10.000", 1000},
		{"-2.50", -250},
	}
	for _, c := range cases {
		got, err := ParseMoney(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseMoney_Invalid(t *testing.T) {
	for _, in := range []string{"", ".", "abc", "1.2.3", "1,50", "12e3", "33.335", "0.004", "10.0049"} {
		_, err := ParseMoney(in)
		assert.ErrorIs(t, err, ErrInvalidMoney, in)
		assert.ErrorIs(t, err, ErrValidation, in)
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "300.00", Money(30000).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.20", Money(-120).String())
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Cost Money `json:"cost"`
	}{Cost: 30000})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cost":"300.00"}`, string(b))

	var in struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"150.00","b":99.5}`), &in))
	assert.Equal(t, Money(15000), in.A)
	assert.Equal(t, Money(9950), in.B)
}

func TestMoney_Times(t *testing.T) {
	got, err := MustMoney("33.33").Times(3)
	require.NoError(t, err)
	assert.Equal(t, "99.99", got.String())

	_, err = MustMoney("90000000000000000.00").Times(2)
	assert.ErrorIs(t, err, ErrInvalidMoney)

	_, err = Money(100).Times(-1)
	assert.ErrorIs(t, err, ErrInvalidMoney)
}
