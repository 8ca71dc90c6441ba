package text

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
)

func TestIsRTL(t *testing.T) {
	assert.True(t, IsRTL("بِسْمِ اللَّهِ"))
	assert.True(t, IsRTL("Surah ﷽"))
	assert.False(t, IsRTL("Hello, world"))
	assert.False(t, IsRTL(""))
}

func TestDetectDirection(t *testing.T) {
	assert.Equal(t, RightToLeft, DetectDirection("123 الحمد"))
	assert.Equal(t, LeftToRight, DetectDirection("abc الحمد"))
	assert.Equal(t, LeftToRight, DetectDirection("42"))
	assert.Equal(t, "rtl", RightToLeft.String())
}

func TestFontSet_ReadyAndFace(t *testing.T) {
	fonts := NewFontSet()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, fonts.Ready(ctx))

	face, err := fonts.Face(24, true, font.HintingFull)
	require.NoError(t, err)
	assert.Greater(t, face.Metrics().Height.Ceil(), 0)
}

func TestFontSet_ReadyHonorsContext(t *testing.T) {
	fonts := &FontSet{ready: make(chan struct{})}
	fonts.loadOnce.Do(func() {}) // never loads
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, fonts.Ready(ctx), context.Canceled)
}
