// Package errs provides operation and kind annotated errors.
//
// Errors are built with E, which accepts its arguments in any order:
//
//	errs.E(errs.Invalid, op, errs.Parameter("c1"), err)
//
// Each layer adds its Op, so the chain of operations an error travelled
// through can be recovered with OpStack.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Op describes an operation, usually as the package and method,
// such as "tables.Client.UpdateRow".
type Op string

// Parameter is the name of the parameter or field that caused the error.
type Parameter string

// Code is an optional machine readable error code.
type Code string

// Kind defines the class of error.
type Kind uint8

const (
	Other           Kind = iota // Unclassified error.
	Invalid                     // Invalid operation for this type of item.
	IO                          // External I/O error such as network failure.
	Exist                       // Item already exists.
	NotExist                    // Item does not exist.
	Internal                    // Internal error or inconsistency.
	Database                    // Error from database.
	Validation                  // Input validation error.
	InvalidRequest              // Invalid request, the message is safe to show the caller.
	Unauthenticated             // Unauthenticated request.
	Unauthorized                // Unauthorized request.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other_error"
	case Invalid:
		return "invalid_operation"
	case IO:
		return "I/O_error"
	case Exist:
		return "item_already_exists"
	case NotExist:
		return "item_does_not_exist"
	case Internal:
		return "internal_error"
	case Database:
		return "database_error"
	case Validation:
		return "input_validation_error"
	case InvalidRequest:
		return "invalid_request_error"
	case Unauthenticated:
		return "unauthenticated_request"
	case Unauthorized:
		return "unauthorized_request"
	}

	return "unknown_error_kind"
}

type Error struct {
	Op    Op
	Kind  Kind
	Param Parameter
	Code  Code
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an error value from its arguments. There must be at least one
// argument or E panics. The type of each argument determines its meaning;
// if more than one argument of a given type is presented, only the last
// one is recorded.
//
// If the error is printed, only the innermost error message is shown, use
// OpStack to recover the path it travelled.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("call to errs.E with no arguments")
	}

	e := &Error{}

	for _, arg := range args {
		switch arg := arg.(type) {
		case Op:
			e.Op = arg
		case string:
			e.Op = Op(arg)
		case Kind:
			e.Kind = arg
		case Parameter:
			e.Param = arg
		case Code:
			e.Code = arg
		case *Error:
			cp := *arg
			e.Err = &cp
		case error:
			e.Err = arg
		case nil:
		default:
			return fmt.Errorf("unknown type %T, value %v in error call", arg, arg)
		}
	}

	prev, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	// The outer error inherits the kind and parameter of the wrapped one
	// unless it set its own.
	if e.Kind == Other {
		e.Kind = prev.Kind
	}

	if e.Param == "" {
		e.Param = prev.Param
	}

	if e.Code == "" {
		e.Code = prev.Code
	}

	return e
}

// Str returns an error that formats as the given text.
func Str(text string) error {
	return errors.New(text)
}

// KindIs reports whether err is an *Error of the given Kind.
func KindIs(kind Kind, err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	if e.Kind != Other {
		return e.Kind == kind
	}

	if e.Err != nil {
		return KindIs(kind, e.Err)
	}

	return false
}

// KindOf returns the first Kind other than Other found in the chain of err.
func KindOf(err error) Kind {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return Other
		}

		if e.Kind != Other {
			return e.Kind
		}

		err = e.Err
	}

	return Other
}

// OpStack returns the operations an error passed through, outermost first.
func OpStack(err error) []string {
	var ops []string

	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}

		if e.Op != "" {
			ops = append(ops, string(e.Op))
		}

		err = e.Err
	}

	return ops
}

// Message returns the innermost message with the operation stack appended,
// mostly useful for logs.
func Message(err error) string {
	stack := OpStack(err)
	if len(stack) == 0 {
		return err.Error()
	}

	return fmt.Sprintf("%s: %s", strings.Join(stack, ": "), err.Error())
}
