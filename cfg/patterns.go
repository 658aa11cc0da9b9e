package cfg

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ndntg/namepush/ndn"
)

// Pattern is the validated configuration for one traffic pattern.
// Optional fields are pointers so a legitimately zero value is never
// mistaken for "not configured". Patterns are immutable after load.
type Pattern struct {
	Name               string         // Content-name prefix, required
	ContentDelay       time.Duration  // Artificial publish delay, zero = none
	GenerationInterval time.Duration  // Re-fire period, required, > 0
	FreshnessPeriod    *time.Duration // Advertised validity duration
	ContentType        *uint32        // Content-type code
	ContentBytes       *int           // Target payload length
	Content            *string        // Literal payload, overrides ContentBytes
	SigningInfo        string         // Signing-descriptor string
}

// PayloadHeader is the synthetic header the generator writes at the
// front of length-targeted payloads.
func (p *Pattern) PayloadHeader(seq uint64) string {
	return fmt.Sprintf("%s/seq=%d&%%_", p.Name, seq)
}

// Summary renders the pattern the way the final traffic report echoes it
func (p *Pattern) Summary() string {
	var sb strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&sb, "Name=%s, ", p.Name)
	}
	if p.ContentDelay > 0 {
		fmt.Fprintf(&sb, "ContentDelay=%d, ", p.ContentDelay.Microseconds())
	}
	if p.GenerationInterval > 0 {
		fmt.Fprintf(&sb, "GenerationInterval=%d, ", p.GenerationInterval.Microseconds())
	}
	if p.FreshnessPeriod != nil {
		fmt.Fprintf(&sb, "FreshnessPeriod=%d, ", p.FreshnessPeriod.Milliseconds())
	}
	if p.ContentType != nil {
		fmt.Fprintf(&sb, "ContentType=%d, ", *p.ContentType)
	}
	if p.ContentBytes != nil {
		fmt.Fprintf(&sb, "ContentBytes=%d, ", *p.ContentBytes)
	}
	if p.Content != nil {
		fmt.Fprintf(&sb, "Content=%s, ", *p.Content)
	}
	fmt.Fprintf(&sb, "SigningInfo=%s", p.SigningInfo)
	return sb.String()
}

// LogConfiguration writes one configuration block for the pattern
func (p *Pattern) LogConfiguration(logger zerolog.Logger, id int) {
	ev := logger.Info().Int("pattern", id).Str("name", p.Name).
		Dur("generation_interval", p.GenerationInterval)
	if p.ContentDelay > 0 {
		ev = ev.Dur("content_delay", p.ContentDelay)
	}
	if p.FreshnessPeriod != nil {
		ev = ev.Dur("freshness_period", *p.FreshnessPeriod)
	}
	if p.ContentType != nil {
		ev = ev.Uint32("content_type", *p.ContentType)
	}
	if p.ContentBytes != nil {
		ev = ev.Int("content_bytes", *p.ContentBytes)
	}
	if p.Content != nil {
		ev = ev.Str("content", *p.Content)
	}
	if p.SigningInfo != "" {
		ev = ev.Str("signing_info", p.SigningInfo)
	}
	ev.Msg("Traffic pattern")
}

// validate checks a finalized pattern block
func (p *Pattern) validate() error {
	if p.Name == "" {
		return fmt.Errorf("pattern is missing required parameter Name")
	}
	if err := ndn.ValidateName(p.Name); err != nil {
		return err
	}
	if p.GenerationInterval <= 0 {
		return fmt.Errorf("pattern %s is missing required parameter GenerationInterval", p.Name)
	}
	if err := ndn.ValidateSigningInfo(p.SigningInfo); err != nil {
		return fmt.Errorf("pattern %s: %w", p.Name, err)
	}
	if p.ContentDelay < 0 {
		return fmt.Errorf("pattern %s has negative ContentDelay", p.Name)
	}
	// Only the synthetic-payload path needs a length check; explicit
	// Content wins over ContentBytes.
	if p.Content == nil && p.ContentBytes != nil {
		if minLen := len(p.PayloadHeader(0)); *p.ContentBytes < minLen {
			return fmt.Errorf("pattern %s: ContentBytes=%d is shorter than the payload header (%d bytes)",
				p.Name, *p.ContentBytes, minLen)
		}
	}
	return nil
}

// LoadPatterns reads the traffic-pattern file. Blocks of Parameter=Value
// lines are separated by blank lines; '#' lines are comments. Unknown
// parameters are logged and ignored, malformed lines are fatal. The
// optional filter drops whole blocks whose Name does not match.
func LoadPatterns(path string, filter *PatternFilter) ([]Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern file: %w", err)
	}
	defer f.Close()

	var (
		patterns []Pattern
		current  Pattern
		started  bool
	)

	finalize := func() error {
		if !started {
			return nil
		}
		if err := current.validate(); err != nil {
			return err
		}
		if filter != nil && !filter.Match(current.Name) {
			log.Debug().Str("name", current.Name).Msg("Pattern excluded by include filter")
		} else {
			patterns = append(patterns, current)
		}
		current = Pattern{}
		started = false
		return nil
	}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			if err := finalize(); err != nil {
				return nil, err
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		if err := parseLine(&current, line, lineNo); err != nil {
			return nil, err
		}
		started = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}
	if err := finalize(); err != nil {
		return nil, err
	}

	if len(patterns) == 0 {
		return nil, fmt.Errorf("pattern file %s contains no usable patterns", path)
	}

	return patterns, nil
}

// parseLine applies one Parameter=Value line to the pattern under construction
func parseLine(p *Pattern, line string, lineNo int) error {
	param, value, ok := strings.Cut(line, "=")
	param = strings.TrimSpace(param)
	value = strings.TrimSpace(value)
	if !ok || param == "" {
		return fmt.Errorf("line %d - invalid syntax: %s", lineNo, line)
	}

	switch param {
	case "Name":
		p.Name = value
	case "ContentDelay":
		us, err := parseUint(param, value, lineNo)
		if err != nil {
			return err
		}
		p.ContentDelay = time.Duration(us) * time.Microsecond
	case "GenerationInterval":
		us, err := parseUint(param, value, lineNo)
		if err != nil {
			return err
		}
		p.GenerationInterval = time.Duration(us) * time.Microsecond
	case "FreshnessPeriod":
		ms, err := parseUint(param, value, lineNo)
		if err != nil {
			return err
		}
		d := time.Duration(ms) * time.Millisecond
		p.FreshnessPeriod = &d
	case "ContentType":
		v, err := parseUint(param, value, lineNo)
		if err != nil {
			return err
		}
		ct := uint32(v)
		p.ContentType = &ct
	case "ContentBytes":
		v, err := parseUint(param, value, lineNo)
		if err != nil {
			return err
		}
		n := int(v)
		p.ContentBytes = &n
	case "Content":
		content := value
		p.Content = &content
	case "SigningInfo":
		p.SigningInfo = value
	default:
		log.Warn().Int("line", lineNo).Str("parameter", param).Msg("Ignoring unknown parameter")
	}
	return nil
}

func parseUint(param, value string, lineNo int) (uint64, error) {
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d - invalid value for %s: %q", lineNo, param, value)
	}
	return v, nil
}
