package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePatternFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patterns.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPatternsSingleBlock(t *testing.T) {
	path := writePatternFile(t, `Name=/ndn/example/a
GenerationInterval=100000
ContentDelay=5000
FreshnessPeriod=1500
ContentType=4
ContentBytes=256
SigningInfo=digest
`)

	patterns, err := LoadPatterns(path, nil)
	require.NoError(t, err)
	require.Len(t, patterns, 1)

	p := patterns[0]
	assert.Equal(t, "/ndn/example/a", p.Name)
	assert.Equal(t, 100*time.Millisecond, p.GenerationInterval)
	assert.Equal(t, 5*time.Millisecond, p.ContentDelay)
	require.NotNil(t, p.FreshnessPeriod)
	assert.Equal(t, 1500*time.Millisecond, *p.FreshnessPeriod)
	require.NotNil(t, p.ContentType)
	assert.Equal(t, uint32(4), *p.ContentType)
	require.NotNil(t, p.ContentBytes)
	assert.Equal(t, 256, *p.ContentBytes)
	assert.Nil(t, p.Content)
	assert.Equal(t, "digest", p.SigningInfo)
}

func TestLoadPatternsMultipleBlocks(t *testing.T) {
	path := writePatternFile(t, `# first pattern
Name=/ndn/a
GenerationInterval=1000

Name = /ndn/b
GenerationInterval = 2000
Content = hello world
`)

	patterns, err := LoadPatterns(path, nil)
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	assert.Equal(t, "/ndn/a", patterns[0].Name)
	assert.Equal(t, "/ndn/b", patterns[1].Name)
	assert.Equal(t, 2*time.Millisecond, patterns[1].GenerationInterval)
	require.NotNil(t, patterns[1].Content)
	assert.Equal(t, "hello world", *patterns[1].Content)
}

func TestLoadPatternsUnknownParameterIgnored(t *testing.T) {
	path := writePatternFile(t, `Name=/ndn/a
GenerationInterval=1000
NoSuchParameter=42
`)

	patterns, err := LoadPatterns(path, nil)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "/ndn/a", patterns[0].Name)
}

func TestLoadPatternsMalformedLineFatal(t *testing.T) {
	path := writePatternFile(t, `Name=/ndn/a
this is not a parameter line
GenerationInterval=1000
`)

	_, err := LoadPatterns(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadPatternsMissingName(t *testing.T) {
	path := writePatternFile(t, `GenerationInterval=1000
`)

	_, err := LoadPatterns(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Name")
}

func TestLoadPatternsMissingInterval(t *testing.T) {
	path := writePatternFile(t, `Name=/ndn/a
`)

	_, err := LoadPatterns(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GenerationInterval")
}

func TestLoadPatternsContentBytesShorterThanHeader(t *testing.T) {
	// Header for /ndn/a at seq=0 is "/ndn/a/seq=0&%_": 15 bytes
	path := writePatternFile(t, `Name=/ndn/a
GenerationInterval=1000
ContentBytes=10
`)

	_, err := LoadPatterns(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ContentBytes")
}

func TestLoadPatternsExplicitContentSkipsLengthCheck(t *testing.T) {
	// Content wins over ContentBytes, so a short ContentBytes is fine
	path := writePatternFile(t, `Name=/ndn/a
GenerationInterval=1000
ContentBytes=1
Content=x
`)

	patterns, err := LoadPatterns(path, nil)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
}

func TestLoadPatternsNameWithoutSlash(t *testing.T) {
	path := writePatternFile(t, `Name=ndn-no-slash
GenerationInterval=1000
`)

	_, err := LoadPatterns(path, nil)
	require.Error(t, err)
}

func TestLoadPatternsBadSigningInfo(t *testing.T) {
	path := writePatternFile(t, `Name=/ndn/a
GenerationInterval=1000
SigningInfo=rsa:whatever
`)

	_, err := LoadPatterns(path, nil)
	require.Error(t, err)
}

func TestLoadPatternsWithFilter(t *testing.T) {
	path := writePatternFile(t, `Name=/ndn/keep/a
GenerationInterval=1000

Name=/other/b
GenerationInterval=1000
`)

	filter, err := NewPatternFilter([]string{"/ndn/keep/*"})
	require.NoError(t, err)

	patterns, err := LoadPatterns(path, filter)
	require.NoError(t, err)
	require.Len(t, patterns, 1)
	assert.Equal(t, "/ndn/keep/a", patterns[0].Name)
}

func TestLoadPatternsEmptyFile(t *testing.T) {
	path := writePatternFile(t, "\n\n")

	_, err := LoadPatterns(path, nil)
	require.Error(t, err)
}

func TestLoadPatternsMissingFile(t *testing.T) {
	_, err := LoadPatterns(filepath.Join(t.TempDir(), "nope.conf"), nil)
	require.Error(t, err)
}

func TestPayloadHeader(t *testing.T) {
	p := Pattern{Name: "/ndn/a"}
	assert.Equal(t, "/ndn/a/seq=0&%_", p.PayloadHeader(0))
	assert.Equal(t, "/ndn/a/seq=1234&%_", p.PayloadHeader(1234))
}

func TestPatternSummary(t *testing.T) {
	fp := 2 * time.Second
	n := 128
	p := Pattern{
		Name:               "/ndn/a",
		GenerationInterval: time.Millisecond,
		FreshnessPeriod:    &fp,
		ContentBytes:       &n,
		SigningInfo:        "digest",
	}

	s := p.Summary()
	assert.Contains(t, s, "Name=/ndn/a")
	assert.Contains(t, s, "GenerationInterval=1000")
	assert.Contains(t, s, "FreshnessPeriod=2000")
	assert.Contains(t, s, "ContentBytes=128")
	assert.Contains(t, s, "SigningInfo=digest")
}
