package cart

import (
	"errors"
	"fmt"
)

// Kind classifies why a cart operation failed.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindOutOfStock
	KindNotFound
	KindInvalidRequest
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindOutOfStock:
		return "out_of_stock"
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

var (
	ErrOutOfStock     = errors.New("requested amount out of stock")
	ErrNotFound       = errors.New("product not in cart")
	ErrInvalidRequest = errors.New("invalid request")
	ErrTransport      = errors.New("catalog lookup failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindOutOfStock:
		return ErrOutOfStock
	case KindNotFound:
		return ErrNotFound
	case KindInvalidRequest:
		return ErrInvalidRequest
	case KindTransport:
		return ErrTransport
	default:
		return nil
	}
}

// Op names a mutating cart operation.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
	OpUpdate Op = "update"
)

// User-facing notification texts.
const (
	MsgOutOfStock    = "Quantidade solicitada fora de estoque"
	MsgAddFailed     = "Erro na adição do produto"
	MsgRemoveFailed  = "Erro na remoção do produto"
	MsgUpdateFailed  = "Erro na alteração de quantidade do produto"
	msgUnknownFailed = "Erro no carrinho"
)

// Error is returned by every failed Store operation.
type Error struct {
	Op        Op
	Kind      Kind
	ProductID int
	Err       error
}

func newError(op Op, kind Kind, productID int, cause error) *Error {
	return &Error{Op: op, Kind: kind, ProductID: productID, Err: cause}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cart %s product %d: %s", e.Op, e.ProductID, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause to
// errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// Message picks the notification text for a failed op. Only an out-of-stock
// failure gets its own text; everything else collapses to the op's generic one.
func Message(op Op, err error) string {
	if KindOf(err) == KindOutOfStock {
		return MsgOutOfStock
	}

	switch op {
	case OpAdd:
		return MsgAddFailed
	case OpRemove:
		return MsgRemoveFailed
	case OpUpdate:
		return MsgUpdateFailed
	default:
		return msgUnknownFailed
	}
}
