package tieredcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParamsTLFU(t *testing.T) {
	is := assert.New(t)

	p := DefaultParams(KindTLFU)
	is.Equal(0.10, p.ProbationarySizeRatio)
	is.Equal(0.90, p.GhostSizeRatio)
	is.Equal(MainCacheLFU, p.MainCacheType)
	is.EqualValues(1, p.MoveToMainThreshold)
	is.True(p.PromoteOnHit)
	is.False(p.Print)
}

func TestDefaultParamsTFIFO(t *testing.T) {
	is := assert.New(t)

	p := DefaultParams(KindTFIFO)
	is.Equal(0.10, p.ProbationarySizeRatio)
	is.Equal(0.90, p.GhostSizeRatio)
	is.EqualValues(2, p.MoveToMainThreshold)
	is.False(p.PromoteOnHit)
}

func TestParseParamsOverlaysDefaults(t *testing.T) {
	is := assert.New(t)

	p := ParseParams(KindTLFU, "probationary-size-ratio=0.25,ghost-size-ratio=0,main-cache-type=clock,move-to-main-threshold=3,promote-on-hit=0")
	is.Equal(0.25, p.ProbationarySizeRatio)
	is.Equal(0.0, p.GhostSizeRatio)
	is.Equal(MainCacheClock, p.MainCacheType)
	is.EqualValues(3, p.MoveToMainThreshold)
	is.False(p.PromoteOnHit)
}

func TestParseParamsIgnoresBlankPairsAndWhitespace(t *testing.T) {
	is := assert.New(t)

	p := ParseParams(KindTLFU, " probationary-size-ratio = 0.20 , , move-to-main-threshold=5 ")
	is.Equal(0.20, p.ProbationarySizeRatio)
	is.EqualValues(5, p.MoveToMainThreshold)
}

func TestParseParamsUnknownKeyPanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "not-a-real-key=1")
	})
}

func TestParseParamsMalformedFloatPanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "probationary-size-ratio=not-a-float")
	})
}

func TestParseParamsProbationaryRatioOutOfRangePanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "probationary-size-ratio=1.0")
	})
	is.Panics(func() {
		ParseParams(KindTLFU, "probationary-size-ratio=0")
	})
}

func TestParseParamsNegativeGhostRatioPanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "ghost-size-ratio=-0.1")
	})
}

func TestParseParamsMalformedIntPanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "move-to-main-threshold=not-an-int")
	})
}

func TestParseParamsThresholdBelowMinimumPanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "move-to-main-threshold=0")
	})
}

func TestParseParamsUnknownMainCacheTypePanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "main-cache-type=lru")
	})
}

func TestParseParamsMainCacheTypeRequiresTLFU(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTFIFO, "main-cache-type=clock")
	})
}

func TestParseParamsPromoteOnHitRequiresTLFU(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTFIFO, "promote-on-hit=1")
	})
}

func TestParseParamsPromoteOnHitRejectsNonBooleanValue(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "promote-on-hit=yes")
	})
}

func TestParseParamsKeyWithoutValuePanics(t *testing.T) {
	is := assert.New(t)

	is.Panics(func() {
		ParseParams(KindTLFU, "probationary-size-ratio")
	})
}

// "print" is intentionally not exercised here: per ParseParams' doc, it
// writes the resolved settings to stderr and calls os.Exit(0), which would
// terminate the test binary rather than fail a single test.
