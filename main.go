////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"syscall/js"

	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/logging"
	"gitlab.com/converterhq/converter-wasm/storage"
	"gitlab.com/converterhq/converter-wasm/wasm"
)

func init() {
	// Start logging to the Javascript console at the default level; the page
	// can lower or raise it later via LogLevel.
	err := logging.SetLogLevel(jww.LevelInfo)
	if err != nil {
		fmt.Printf("Failed to set log level: %+v\n", err)
		os.Exit(1)
	}
}

func main() {
	fmt.Println("Go Web Assembly")

	err := storage.CheckAndStoreVersion()
	if err != nil {
		jww.FATAL.Panicf("Failed to check stored version: %+v", err)
	}

	// wasm/converter.go
	js.Global().Set("NewConverter", js.FuncOf(wasm.NewConverter))

	// wasm/logging.go
	js.Global().Set("LogLevel", js.FuncOf(wasm.LogLevel))
	js.Global().Set("LogToFile", js.FuncOf(wasm.LogToFile))
	js.Global().Set("GetLogFile", js.FuncOf(wasm.GetLogFile))

	// wasm/version.go
	js.Global().Set("GetVersion", js.FuncOf(wasm.GetVersion))

	// Wait until the user terminates the program
	c := make(chan os.Signal)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	os.Exit(0)
}
