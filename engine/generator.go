package engine

import (
	"fmt"
	"math/rand"

	"github.com/ndntg/namepush/cfg"
)

// GeneratePayload builds the payload for one publication. Explicit content
// wins over a length target. Length-targeted payloads carry the pattern's
// synthetic header followed by filler drawn uniformly from the full byte
// range. Deterministic for a fixed rng, so tests inject a seeded source.
func GeneratePayload(p *cfg.Pattern, seq uint64, rng *rand.Rand) ([]byte, error) {
	if p.Content != nil {
		return []byte(*p.Content), nil
	}
	if p.ContentBytes == nil {
		return nil, nil
	}

	header := p.PayloadHeader(seq)
	// Load-time validation checks the seq=0 header; the header widens as
	// the sequence number gains digits, so re-check here.
	if len(header) > *p.ContentBytes {
		return nil, fmt.Errorf("pattern %s: payload header at seq=%d exceeds ContentBytes=%d",
			p.Name, seq, *p.ContentBytes)
	}

	buf := make([]byte, *p.ContentBytes)
	n := copy(buf, header)
	for i := n; i < len(buf); i++ {
		buf[i] = byte(rng.Intn(256))
	}
	return buf, nil
}
