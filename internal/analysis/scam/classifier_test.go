package scam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeBlockedAccountMessage(t *testing.T) {
	c := New(DefaultThreshold)
	a := c.Analyze("Your account will be blocked! Call 9876543210 immediately or pay to UPI id fraud@examplebank.")

	assert.True(t, a.Scam)
	assert.InDelta(t, 0.35, a.Score, 1e-9)
	assert.Equal(t, []Family{Urgency, Threat}, a.Families)
	assert.Contains(t, a.Keywords, "blocked")
	assert.Contains(t, a.Keywords, "immediately")
	assert.Len(t, a.Notes, 2)
}

func TestAnalyzeBenignText(t *testing.T) {
	c := New(DefaultThreshold)
	a := c.Analyze("Hi, are we still meeting for lunch tomorrow?")

	assert.False(t, a.Scam)
	assert.Zero(t, a.Score)
	assert.Empty(t, a.Families)
	assert.Empty(t, a.Keywords)
}

func TestAnalyzeEmptyText(t *testing.T) {
	c := New(DefaultThreshold)
	assert.Zero(t, c.Score("   "))
	assert.False(t, c.IsScam(""))
}

func TestCredentialRequestIsBoostedByVerb(t *testing.T) {
	c := New(DefaultThreshold)
	mention := c.Analyze("The OTP feature is new")
	request := c.Analyze("Please share the OTP")

	assert.InDelta(t, 0.15, mention.Score, 1e-9)
	assert.InDelta(t, 0.25, request.Score, 1e-9)
}

func TestPrizeWithFeeIsBoosted(t *testing.T) {
	c := New(DefaultThreshold)
	a := c.Analyze("Congratulations you won a lottery, pay the processing fee to claim")
	assert.InDelta(t, 0.40, a.Score, 1e-9)
	assert.Equal(t, []Family{PrizeBait}, a.Families)
}

func TestShortenedLinkIsSuspicious(t *testing.T) {
	c := New(DefaultThreshold)
	a := c.Analyze("check bit.ly/abc123 for details")
	assert.Equal(t, []Family{SuspiciousLink}, a.Families)
	assert.InDelta(t, 0.20, a.Score, 1e-9)
}

func TestTrustedBankLinkIsNotSuspicious(t *testing.T) {
	c := New(DefaultThreshold)
	a := c.Analyze("visit https://www.onlinesbi.sbi/personal for details")
	assert.NotContains(t, a.Families, SuspiciousLink)
}

func TestScoreIsCappedAtOne(t *testing.T) {
	c := New(DefaultThreshold)
	text := "URGENT: RBI officer here. Your account is blocked. You won a lottery, pay the fee " +
		"and share your OTP immediately at http://bit.ly/claim-now"
	a := c.Analyze(text)
	require.True(t, a.Scam)
	assert.Equal(t, 1.0, a.Score)
	assert.Len(t, a.Families, 6)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	c := New(DefaultThreshold)
	text := "Share your UPI PIN immediately or your account will be suspended"
	first := c.Analyze(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Analyze(text))
	}
}

func TestNewRejectsOutOfRangeThreshold(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New(0).Threshold())
	assert.Equal(t, DefaultThreshold, New(1.5).Threshold())
	assert.Equal(t, 0.5, New(0.5).Threshold())
}

func TestThresholdChangesVerdict(t *testing.T) {
	strict := New(0.5)
	assert.False(t, strict.IsScam("Your account will be blocked immediately"))
	assert.True(t, New(DefaultThreshold).IsScam("Your account will be blocked immediately"))
}
