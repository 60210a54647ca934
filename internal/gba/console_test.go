package gba

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyROM(t *testing.T) {
	_, err := New(nil, nil, nil, Config{})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestNewRejectsWrongSizedBIOS(t *testing.T) {
	_, err := New(make([]byte, 100), make([]byte, 0x200), nil, Config{})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestNewWithoutBIOSForcesSkipBIOS(t *testing.T) {
	con, err := New(nil, make([]byte, 0x200), nil, Config{})
	require.NoError(t, err)
	assert.NotNil(t, con)
	assert.True(t, con.cfg.SkipBIOS, "no BIOS image forces SkipBIOS on")
}

func TestNewDefaultsSampleRateWhenUnset(t *testing.T) {
	con, err := New(nil, make([]byte, 0x200), nil, Config{SampleRate: 0})
	require.NoError(t, err)
	assert.NotNil(t, con)
	assert.Equal(t, 48000, con.cfg.SampleRate)
}

func TestSaveBackupNilWithoutDetectedMedium(t *testing.T) {
	con, err := New(nil, make([]byte, 0x200), nil, Config{})
	require.NoError(t, err)
	assert.Nil(t, con.SaveBackup())
}

func TestFrameDimensionsMatchPPU(t *testing.T) {
	assert.Equal(t, 240, FrameWidth)
	assert.Equal(t, 160, FrameHeight)
}
