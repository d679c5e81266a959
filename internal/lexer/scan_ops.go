package lexer

import (
	"ruleslang/internal/diag"
	"ruleslang/internal/token"
)

// scanOperatorOrPunct performs maximal-munch matching over the fixed symbol
// table, longest lexeme first within each leading byte.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}

	switch {
	case lx.try3('*', '*', '='):
		return emit(token.ExponentAssign)
	case lx.try2('*', '*'):
		return emit(token.Exponent)
	case lx.try2('*', '='):
		return emit(token.StarAssign)

	case lx.try2('/', '='):
		return emit(token.SlashAssign)

	case lx.try2('%', '='):
		return emit(token.PercentAssign)

	case lx.try2('+', '='):
		return emit(token.PlusAssign)

	case lx.try2('-', '='):
		return emit(token.MinusAssign)

	case lx.try3('<', '<', ':'):
		return emit(token.TypeSubShl)
	case lx.try3('<', '<', '='):
		return emit(token.ShlAssign)
	case lx.try2('<', '<'):
		return emit(token.Shl)
	case lx.try3('<', ':', '>'):
		return emit(token.TypeIncomparable)
	case lx.try2('<', ':'):
		return emit(token.TypeSub)
	case lx.try2('<', '='):
		return emit(token.LtEq)

	case lx.try4('>', '>', '>', '='):
		return emit(token.ShrTripleAssign)
	case lx.try3('>', '>', '>'):
		return emit(token.ShrTriple)
	case lx.try3('>', '>', '='):
		return emit(token.ShrAssign)
	case lx.try2('>', '>'):
		return emit(token.Shr)
	case lx.try2('>', ':'):
		return emit(token.TypeSuper)
	case lx.try2('>', '='):
		return emit(token.GtEq)

	case lx.try3('=', '=', '='):
		return emit(token.IdentityEq)
	case lx.try2('=', '='):
		return emit(token.Eq)

	case lx.try3('!', '=', '='):
		return emit(token.IdentityNotEq)
	case lx.try2('!', '='):
		return emit(token.NotEq)
	case lx.try2('!', ':'):
		return emit(token.TypeNotEq)

	case lx.try2(':', ':'):
		return emit(token.TypeEq)

	case lx.try3('&', '&', '='):
		return emit(token.AndAndAssign)
	case lx.try2('&', '&'):
		return emit(token.AndAnd)
	case lx.try2('&', '='):
		return emit(token.AmpAssign)

	case lx.try3('^', '^', '='):
		return emit(token.XorXorAssign)
	case lx.try2('^', '^'):
		return emit(token.XorXor)
	case lx.try2('^', '='):
		return emit(token.CaretAssign)

	case lx.try3('|', '|', '='):
		return emit(token.OrOrAssign)
	case lx.try2('|', '|'):
		return emit(token.OrOr)
	case lx.try2('|', '='):
		return emit(token.PipeAssign)

	case lx.try2('~', '='):
		return emit(token.TildeAssign)

	case lx.try2('.', '.'):
		return emit(token.DotDot)
	}

	ch := lx.cursor.Bump()
	switch ch {
	case '+':
		return emit(token.Plus)
	case '-':
		return emit(token.Minus)
	case '*':
		return emit(token.Star)
	case '/':
		return emit(token.Slash)
	case '%':
		return emit(token.Percent)
	case '=':
		return emit(token.Assign)
	case '!':
		return emit(token.Bang)
	case '<':
		return emit(token.Lt)
	case '>':
		return emit(token.Gt)
	case '&':
		return emit(token.Amp)
	case '|':
		return emit(token.Pipe)
	case '^':
		return emit(token.Caret)
	case '~':
		return emit(token.Tilde)
	case ':':
		return emit(token.Colon)
	case ',':
		return emit(token.Comma)
	case '.':
		return emit(token.Dot)
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case '{':
		return emit(token.LBrace)
	case '}':
		return emit(token.RBrace)
	case '[':
		return emit(token.LBracket)
	case ']':
		return emit(token.RBracket)
	default:
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexUnknownChar, sp, "unknown character")
		return token.Token{Kind: token.OtherSymbol, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
	}
}
