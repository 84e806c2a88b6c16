////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package utils

import (
	"fmt"
	"syscall/js"
)

// Exception are the possible Javascript error types that can be thrown.
type Exception string

const (
	// TypeError indicates an operation was given a value of an unexpected
	// type or an operation failed outright.
	TypeError Exception = "TypeError"

	// RangeError indicates a value is outside its allowed range.
	RangeError Exception = "RangeError"
)

// JsError converts the error to a Javascript Error.
func JsError(err error) js.Value {
	return Error.New(err.Error())
}

// JsTrace converts the error to a Javascript Error that includes the error's
// stack trace.
func JsTrace(err error) js.Value {
	return Error.New(fmt.Sprintf("%+v", err))
}

// Throw throws the error into Javascript as the given exception type. The
// wasm_exec glue converts the panic into a Javascript exception at the
// function boundary.
func Throw(exception Exception, err error) {
	throw(exception, fmt.Sprintf("%+v", err))
}

func throw(_ Exception, message string) {
	panic(message)
}
