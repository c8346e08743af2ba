package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "funds.yaml", `
funds:
  - isin: IE00B4L5Y983
    ticker: IWDA.L
    name: iShares Core MSCI World
    manager: BlackRock
  - isin: LU0323578657
    name: FvS Multiple Opportunities
  - ticker: SPY
`)

	funds, err := Load(path)
	require.NoError(t, err)
	require.Len(t, funds, 3)
	assert.Equal(t, "IE00B4L5Y983", funds[0].ISIN)
	assert.Equal(t, "IWDA.L", funds[0].Ticker)
	assert.Equal(t, "BlackRock", funds[0].Manager)
	assert.Equal(t, "SPY", funds[2].ID())
}

func TestLoadYAMLRejectsEmptyEntry(t *testing.T) {
	path := writeFile(t, "funds.yaml", `
funds:
  - isin: IE00B4L5Y983
  - name: no identifiers at all
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither isin nor ticker")
}

func TestLoadPlainText(t *testing.T) {
	path := writeFile(t, "funds.txt", `
# core holdings
IE00B4L5Y983
lu0323578657   # lower case is fine
SPY

US78462F1030
`)

	funds, err := Load(path)
	require.NoError(t, err)
	require.Len(t, funds, 4)
	assert.Equal(t, "IE00B4L5Y983", funds[0].ISIN)
	assert.Equal(t, "LU0323578657", funds[1].ISIN)
	assert.Equal(t, "SPY", funds[2].Ticker)
	assert.Empty(t, funds[2].ISIN)
	assert.Equal(t, "US78462F1030", funds[3].ISIN)
}

func TestLoadPlainTextBadLine(t *testing.T) {
	path := writeFile(t, "funds.txt", "IE00B4L5Y983\nnot-an-identifier!\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLooksLikeISIN(t *testing.T) {
	assert.True(t, LooksLikeISIN("IE00B4L5Y983"))
	assert.True(t, LooksLikeISIN("us78462f1030"))
	assert.False(t, LooksLikeISIN("SPY"))
	assert.False(t, LooksLikeISIN("123456789012"), "must start with country letters")
	assert.False(t, LooksLikeISIN("IE00B4L5-983"))
}

func TestLooksLikeTicker(t *testing.T) {
	assert.True(t, LooksLikeTicker("SPY"))
	assert.True(t, LooksLikeTicker("VTSMX"))
	assert.False(t, LooksLikeTicker(""))
	assert.False(t, LooksLikeTicker("TOOLONG"))
	assert.False(t, LooksLikeTicker("IWDA.L"), "exchange-suffixed symbols are not bare tickers")
}

func TestChecksumValid(t *testing.T) {
	assert.True(t, ChecksumValid("IE00B4L5Y983"))
	assert.True(t, ChecksumValid("US78462F1030"))
	assert.True(t, ChecksumValid("LU0097089360"))
	assert.False(t, ChecksumValid("US0378331006"), "flipped check digit")
	assert.False(t, ChecksumValid("IE00B4L5Y98"), "wrong length")
}

func TestDefaultsHaveValidChecksums(t *testing.T) {
	for _, f := range Defaults() {
		assert.True(t, ChecksumValid(f.ISIN), f.ISIN)
	}
}

func TestLookup(t *testing.T) {
	funds := Defaults()

	f, ok := Lookup(funds, "ie00b4l5y983")
	require.True(t, ok)
	assert.Equal(t, "IWDA.L", f.Ticker)

	f, ok = Lookup(funds, "spy")
	require.True(t, ok)
	assert.Equal(t, "US78462F1030", f.ISIN)

	_, ok = Lookup(funds, "XX0000000000")
	assert.False(t, ok)
}
