package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	var s Bits[int]

	assert.False(t, s.IsSet(3))
	assert.Equal(t, 0, s.Size())
	assert.Nil(t, s.Slice())

	for _, k := range []int{200, 1, 3, 64, 3} {
		s.Set(k)
	}

	assert.True(t, s.IsSet(3))
	assert.True(t, s.IsSet(200))
	assert.False(t, s.IsSet(2))
	assert.False(t, s.IsSet(1000))
	assert.Equal(t, 4, s.Size())
	assert.Equal(t, []int{1, 3, 64, 200}, s.Slice())
}

func TestBitsSubtract(t *testing.T) {
	var all Bits[int64]
	all.SetRange(0, 130)
	assert.Equal(t, 130, all.Size())

	var have Bits[int64]
	have.Set(0)
	have.Set(5)
	have.Set(129)
	have.Set(300)

	all.Subtract(have)
	assert.Equal(t, 127, all.Size())
	assert.False(t, all.IsSet(129))
	assert.True(t, all.IsSet(128))

	have.Subtract(all)
	assert.Equal(t, []int64{0, 5, 129, 300}, have.Slice())
}
