package tieredcache

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samber/tiered-cache/internal"
)

// MainCacheType selects the policy backing TLFU's main sub-cache.
type MainCacheType string

const (
	MainCacheLFU    MainCacheType = "lfu"
	MainCacheClock  MainCacheType = "clock"
	MainCacheClock2 MainCacheType = "clock2"
)

// Params holds the parsed configuration for one engine instance. Zero value
// is never valid; build one through DefaultParams or ParseParams.
type Params struct {
	ProbationarySizeRatio float64
	GhostSizeRatio        float64
	MainCacheType         MainCacheType // TLFU only
	MoveToMainThreshold   int64
	PromoteOnHit          bool // TLFU only
	Print                 bool
}

// DefaultParams returns the documented defaults for kind.
func DefaultParams(kind EngineKind) Params {
	switch kind {
	case KindTLFU:
		return Params{
			ProbationarySizeRatio: 0.10,
			GhostSizeRatio:        0.90,
			MainCacheType:         MainCacheLFU,
			MoveToMainThreshold:   1,
			PromoteOnHit:          true,
		}
	case KindTFIFO:
		return Params{
			ProbationarySizeRatio: 0.10,
			GhostSizeRatio:        0.90,
			MoveToMainThreshold:   2,
		}
	default:
		panic(fmt.Sprintf("tieredcache: unknown engine kind %v", kind))
	}
}

// ParseParams parses a "key=value,key=value" string, applying paramString
// on top of kind's defaults. An unknown key, a malformed value, or an
// unknown main-cache-type is a fatal configuration error (panic), per the
// error handling design: there is no retry path for a bad configuration.
//
// The "print" key has no value; when present, the resolved settings are
// printed to stderr and the process exits.
func ParseParams(kind EngineKind, paramString string) Params {
	p := DefaultParams(kind)

	for _, rawPair := range strings.Split(paramString, ",") {
		pair := strings.TrimSpace(rawPair)
		if pair == "" {
			continue
		}

		key, value, hasValue := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "probationary-size-ratio":
			p.ProbationarySizeRatio = mustFloatInRange(kind, key, value, hasValue)
		case "ghost-size-ratio":
			p.GhostSizeRatio = mustFloatAtLeast(kind, key, value, hasValue, 0)
		case "main-cache-type":
			internal.Assertf(kind == KindTLFU, "%s: main-cache-type is only valid for TLFU", kind)
			internal.Assertf(hasValue, "%s: main-cache-type requires a value", kind)
			switch MainCacheType(value) {
			case MainCacheLFU, MainCacheClock, MainCacheClock2:
				p.MainCacheType = MainCacheType(value)
			default:
				panic(fmt.Sprintf("%s: unknown main-cache-type %q", kind, value))
			}
		case "move-to-main-threshold":
			p.MoveToMainThreshold = mustIntAtLeast(kind, key, value, hasValue, 1)
		case "promote-on-hit":
			internal.Assertf(kind == KindTLFU, "%s: promote-on-hit is only valid for TLFU", kind)
			p.PromoteOnHit = mustBool(kind, key, value, hasValue)
		case "print":
			p.Print = true
		default:
			panic(fmt.Sprintf("%s: unknown configuration key %q", kind, key))
		}
	}

	if p.Print {
		fmt.Fprintf(os.Stderr, "%s settings: %+v\n", kind, p)
		os.Exit(0)
	}

	return p
}

func mustFloatInRange(kind EngineKind, key, value string, hasValue bool) float64 {
	internal.Assertf(hasValue, "%s: %s requires a value", kind, key)
	f, err := strconv.ParseFloat(value, 64)
	internal.Assertf(err == nil, "%s: %s: malformed float %q", kind, key, value)
	internal.Assertf(f > 0 && f < 1, "%s: %s must be in (0,1), got %v", kind, key, f)
	return f
}

func mustFloatAtLeast(kind EngineKind, key, value string, hasValue bool, min float64) float64 {
	internal.Assertf(hasValue, "%s: %s requires a value", kind, key)
	f, err := strconv.ParseFloat(value, 64)
	internal.Assertf(err == nil, "%s: %s: malformed float %q", kind, key, value)
	internal.Assertf(f >= min, "%s: %s must be >= %v, got %v", kind, key, min, f)
	return f
}

func mustIntAtLeast(kind EngineKind, key, value string, hasValue bool, min int64) int64 {
	internal.Assertf(hasValue, "%s: %s requires a value", kind, key)
	n, err := strconv.ParseInt(value, 10, 64)
	internal.Assertf(err == nil, "%s: %s: malformed integer %q", kind, key, value)
	internal.Assertf(n >= min, "%s: %s must be >= %d, got %d", kind, key, min, n)
	return n
}

func mustBool(kind EngineKind, key, value string, hasValue bool) bool {
	internal.Assertf(hasValue, "%s: %s requires a value", kind, key)
	switch value {
	case "0":
		return false
	case "1":
		return true
	default:
		panic(fmt.Sprintf("%s: %s must be 0 or 1, got %q", kind, key, value))
	}
}
