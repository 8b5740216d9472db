package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bopcli/pkg/contracts/domain"
)

func TestValueArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Value
		want Value
	}{
		{"add", Some(2).Add(Some(3)), Some(5)},
		{"add missing", Some(2).Add(Missing), Missing},
		{"sub", Some(2).Sub(Some(3)), Some(-1)},
		{"sub missing", Missing.Sub(Some(3)), Missing},
		{"mul", Some(2).Mul(Some(3)), Some(6)},
		{"div", Some(6).Div(Some(3)), Some(2)},
		{"div by zero", Some(6).Div(Some(0)), Missing},
		{"div missing", Some(6).Div(Missing), Missing},
		{"or zero", Missing.OrZero(), Some(0)},
		{"or zero present", Some(4).OrZero(), Some(4)},
		{"nan", Some(math.NaN()), Missing},
		{"inf", Some(math.Inf(1)), Missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestPeriodMatrix(t *testing.T) {
	m := NewPeriodMatrix([]domain.Record{
		rec("b", "2013-08-01", 2),
		rec("a", "2013-07-01", 1),
		rec("a", "2013-07-01", 4),
	})

	assert.Equal(t, []string{"a", "b"}, m.Columns())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, day("2013-07-01"), m.Dates()[0])
	assert.Equal(t, Some(5), m.At("a", day("2013-07-01")))
	assert.Equal(t, Missing, m.At("a", day("2013-08-01")))
	assert.Equal(t, Missing, m.At("c", day("2013-07-01")))
	assert.Nil(t, m.Series("c"))

	m.Set("c", Series{Some(1), Missing})
	assert.Equal(t, []string{"a", "b", "c"}, m.Columns())

	assert.True(t, m.Rename("a", "z"))
	assert.Equal(t, []string{"z", "b", "c"}, m.Columns())
	assert.False(t, m.Has("a"))

	assert.True(t, m.Rename("b", "c"))
	assert.Equal(t, []string{"z", "c"}, m.Columns())
	assert.Equal(t, Some(2), m.At("c", day("2013-08-01")))

	assert.False(t, m.Rename("missing", "x"))
	assert.Panics(t, func() { m.Set("bad", Series{Some(1)}) })

	records, missing := m.Flatten()
	require.Len(t, records, 2)
	assert.Equal(t, 2, missing)
	assert.Equal(t, rec("z", "2013-07-01", 5), records[0])
	assert.Equal(t, rec("c", "2013-08-01", 2), records[1])
}

func TestPeriodMatrix_SeriesIsCopy(t *testing.T) {
	m := NewPeriodMatrix([]domain.Record{rec("a", "2013-07-01", 1)})

	s := m.Series("a")
	s[0] = Some(99)

	assert.Equal(t, Some(1), m.At("a", day("2013-07-01")))
}
