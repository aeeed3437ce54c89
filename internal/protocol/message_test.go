package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_SetButton(t *testing.T) {
	data, err := Encode(NewButton(1, 0, StateDown))
	require.NoError(t, err)
	assert.Equal(t, `{"method":"setbutton","params":{"key":0,"state":1},"id":1}`, string(data))
}

func TestEncode_SetTouch(t *testing.T) {
	data, err := Encode(NewTouch(42, 5000, 1234, StateUp))
	require.NoError(t, err)
	assert.Equal(t, `{"method":"settouch","params":{"x":5000,"y":1234,"state":0},"id":42}`, string(data))
}

func TestNewTouch_ClampsCoordinates(t *testing.T) {
	req := NewTouch(1, -5, ScaleMax+100, StateDown)
	p, ok := req.Params.(TouchParams)
	require.True(t, ok)
	assert.Equal(t, 0, p.X)
	assert.Equal(t, ScaleMax, p.Y)
}

func TestNewButton_StateIsBinary(t *testing.T) {
	p := NewButton(1, 3, 7).Params.(ButtonParams)
	assert.Equal(t, StateDown, p.State)
	assert.Equal(t, 3, p.Key)
}
