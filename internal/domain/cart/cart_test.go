package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOrIncrementLine(t *testing.T) {
	c := New("c1")

	c.AddOrIncrementLine("p1", dec("9.99"), dec("0.08"))
	c.AddOrIncrementLine("p2", dec("4.50"), decimal.Zero)
	c.AddOrIncrementLine("p1", dec("9.99"), dec("0.08"))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)
	assertDecimalEqual(t, decimal.Zero, lines[0].DiscountPercent)
}

func TestSetQuantity(t *testing.T) {
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("9.99"), decimal.Zero)

	require.NoError(t, c.SetQuantity("p1", 5))
	assert.Equal(t, 5, c.Lines()[0].Quantity)
}

func TestSetQuantity_ZeroRemovesLine(t *testing.T) {
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("9.99"), decimal.Zero)

	require.NoError(t, c.SetQuantity("p1", 0))
	assert.True(t, c.Empty())

	c.AddOrIncrementLine("p2", dec("1.00"), decimal.Zero)
	require.NoError(t, c.SetQuantity("p2", -3))
	assert.True(t, c.Empty())
}

func TestSetQuantity_MissingLine(t *testing.T) {
	c := New("c1")

	err := c.SetQuantity("ghost", 2)

	var nfErr *LineNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "ghost", nfErr.ProductID)
}

func TestSetLineDiscount_RejectsOutOfRange(t *testing.T) {
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("9.99"), decimal.Zero)

	tests := []struct {
		name    string
		percent string
		wantErr bool
	}{
		{name: "negative", percent: "-1", wantErr: true},
		{name: "above hundred", percent: "100.01", wantErr: true},
		{name: "zero", percent: "0"},
		{name: "hundred", percent: "100"},
		{name: "fractional", percent: "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SetLineDiscount("p1", dec(tt.percent))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidPercent)
				return
			}
			require.NoError(t, err)
			assertDecimalEqual(t, dec(tt.percent), c.Lines()[0].DiscountPercent)
		})
	}
}

func TestSetGlobalDiscount_RejectsOutOfRange(t *testing.T) {
	c := New("c1")

	require.ErrorIs(t, c.SetGlobalDiscount(dec("101")), ErrInvalidPercent)
	require.ErrorIs(t, c.SetGlobalDiscount(dec("-0.5")), ErrInvalidPercent)

	require.NoError(t, c.SetGlobalDiscount(dec("15")))
	assertDecimalEqual(t, dec("15"), c.GlobalDiscountPercent())
}

func TestRemoveLineAndClear(t *testing.T) {
	c := New("c1")
	c.AddOrIncrementLine("p1", dec("9.99"), decimal.Zero)
	c.AddOrIncrementLine("p2", dec("5.00"), decimal.Zero)
	require.NoError(t, c.SetGlobalDiscount(dec("10")))

	require.NoError(t, c.RemoveLine("p1"))
	require.Len(t, c.Lines(), 1)

	var nfErr *LineNotFoundError
	require.ErrorAs(t, c.RemoveLine("p1"), &nfErr)

	c.Clear()
	assert.True(t, c.Empty())
	assertDecimalEqual(t, decimal.Zero, c.GlobalDiscountPercent())
}

func TestStore(t *testing.T) {
	s := NewStore()

	c := s.Create()
	require.NotEmpty(t, c.ID())

	got, err := s.Get(c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)

	require.NoError(t, s.Delete(c.ID()))

	_, err = s.Get(c.ID())
	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)

	require.Error(t, s.Delete(c.ID()))
}
