package engine

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndntg/namepush/cfg"
)

func TestGeneratePayloadExplicitContent(t *testing.T) {
	content := "short"
	n := 1000
	p := &cfg.Pattern{Name: "/ndn/a", Content: &content, ContentBytes: &n}

	// Explicit content wins over the length target
	payload, err := GeneratePayload(p, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, []byte("short"), payload)
}

func TestGeneratePayloadEmpty(t *testing.T) {
	p := &cfg.Pattern{Name: "/ndn/a"}
	payload, err := GeneratePayload(p, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestGeneratePayloadTargetLength(t *testing.T) {
	n := 64
	p := &cfg.Pattern{Name: "/ndn/a", ContentBytes: &n}
	rng := rand.New(rand.NewSource(1))

	for seq := uint64(0); seq < 200; seq++ {
		payload, err := GeneratePayload(p, seq, rng)
		require.NoError(t, err)
		assert.Len(t, payload, n, "seq %d", seq)
		assert.True(t, bytes.HasPrefix(payload, []byte(fmt.Sprintf("/ndn/a/seq=%d&%%_", seq))), "seq %d", seq)
	}
}

func TestGeneratePayloadDeterministicForSeed(t *testing.T) {
	n := 256
	p := &cfg.Pattern{Name: "/ndn/a", ContentBytes: &n}

	a, err := GeneratePayload(p, 5, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := GeneratePayload(p, 5, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := GeneratePayload(p, 5, rand.New(rand.NewSource(43)))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGeneratePayloadHeaderOutgrowsTarget(t *testing.T) {
	p := &cfg.Pattern{Name: "/ndn/a"}
	n := len(p.PayloadHeader(0))
	p.ContentBytes = &n

	// Fits exactly at seq=0
	payload, err := GeneratePayload(p, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Len(t, payload, n)

	// The header gains a digit and no longer fits
	_, err = GeneratePayload(p, 10, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ContentBytes")
}
