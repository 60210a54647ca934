package joypad

import (
	"testing"

	"GoBA/internal/interrupt"

	"github.com/stretchr/testify/assert"
)

func TestKEYINPUTActiveLow(t *testing.T) {
	j := New(interrupt.New())
	assert.Equal(t, uint16(allButtons), j.KEYINPUT(), "nothing held reads all-ones")

	j.SetButtonState(A, true)
	assert.Equal(t, uint16(allButtons&^uint16(A)), j.KEYINPUT())

	j.SetButtonState(A, false)
	assert.Equal(t, uint16(allButtons), j.KEYINPUT())
}

func TestKEYCNTOrCondition(t *testing.T) {
	irq := interrupt.New()
	j := New(irq)
	j.SetKEYCNT(uint16(A|B) | 1<<14) // OR mode, enabled, select A or B

	j.SetButtonState(Start, true)
	assert.Zero(t, irq.IF(), "Start is not in the selected mask")

	j.SetButtonState(A, true)
	assert.NotZero(t, irq.IF(), "A alone satisfies OR condition")
}

func TestKEYCNTAndConditionRequiresAll(t *testing.T) {
	irq := interrupt.New()
	j := New(irq)
	j.SetKEYCNT(uint16(A|B) | 1<<14 | 1<<15) // AND mode

	j.SetButtonState(A, true)
	assert.Zero(t, irq.IF(), "AND mode needs both selected buttons held")

	j.SetButtonState(B, true)
	assert.NotZero(t, irq.IF())
}

func TestRegisterWindow(t *testing.T) {
	j := New(interrupt.New())
	j.SetButtonState(Select, true)

	lo, ok := j.ReadIO8(regKEYINPUT)
	assert.True(t, ok)
	assert.Equal(t, uint8(j.KEYINPUT()), lo)

	ok = j.WriteIO8(regKEYCNT, 0xFF)
	assert.True(t, ok)
	ok = j.WriteIO8(regKEYCNT+1, 0xC3)
	assert.True(t, ok)
	assert.NotZero(t, j.KEYCNT()&(1<<14), "enable bit set")
}
