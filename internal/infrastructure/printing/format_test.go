package printing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Money(t *testing.T) {
	f := NewFormatter()
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"12", "$12.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-42.1", "-$42.10"},
		{"999.999", "$1,000.00"},
		{"100000", "$100,000.00"},
		{"-0.004", "$0.00"},
		{"99999999999999.99", "$99,999,999,999,999.99"},
		{"9007199254740993.00", "$9,007,199,254,740,993.00"},
		{"123456789012345678901234.56", "$123,456,789,012,345,678,901,234.56"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Money(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatter_PercentAndQuantity(t *testing.T) {
	f := NewFormatter()
	assert.Equal(t, "19.00%", f.Percent(decimal.NewFromInt(19)))
	assert.Equal(t, "2.50%", f.Percent(decimal.RequireFromString("2.5")))
	assert.Equal(t, "2", f.Quantity(decimal.RequireFromString("2.000")))
	assert.Equal(t, "1.25", f.Quantity(decimal.RequireFromString("1.25")))
}
