package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, src string) []Token {
	t.Helper()
	s := NewScanner(src, "t.ua")
	toks := s.ScanTokens()
	require.Empty(t, s.Errors)
	return toks
}

func primLexemes(toks []Token) []string {
	var out []string
	for _, tok := range toks {
		if tok.Type == TokenPrimitive {
			out = append(out, tok.Lexeme)
		}
	}
	return out
}

func TestScanArithmeticOperators(t *testing.T) {
	toks := scan(t, "1 2 +\n")
	assert.Equal(t, []string{"+"}, primLexemes(toks))
}

func TestScanComparisonOperators(t *testing.T) {
	toks := scan(t, "1 2 != 3 4 <= 5 6 >=\n")
	assert.Equal(t, []string{"!=", "<=", ">="}, primLexemes(toks))
}

func TestScanBareMinusIsPrimitive(t *testing.T) {
	toks := scan(t, "3 4 -\n")
	assert.Equal(t, []string{"-"}, primLexemes(toks))
}

func TestScanNegativeNumberLiteral(t *testing.T) {
	toks := scan(t, "-5\n")
	require.NotEmpty(t, toks)
	assert.Equal(t, TokenNumber, toks[0].Type)
	assert.Equal(t, float64(-5), toks[0].Num)
}

func TestScanBangWithoutEqualsErrors(t *testing.T) {
	s := NewScanner("!\n", "t.ua")
	s.ScanTokens()
	require.NotEmpty(t, s.Errors)
}
