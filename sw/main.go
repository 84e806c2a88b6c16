////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

// The service worker binary. It is registered by the page, runs inside a
// ServiceWorkerGlobalScope, and serves the application shell cache-first so
// the converter keeps loading while offline.
package main

import (
	_ "embed"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/logging"
	"gitlab.com/converterhq/converter-wasm/swcache"
)

// assetManifest is generated by the manifest CLI from the deployed web root.
// Bumping its version field is what forces a full cache refresh on the next
// deployment.
//
//go:embed assets.json
var assetManifest []byte

func init() {
	err := logging.SetLogLevel(jww.LevelInfo)
	if err != nil {
		fmt.Printf("Failed to set log level: %+v\n", err)
		os.Exit(1)
	}
}

func main() {
	jww.INFO.Printf("[SW] Go Web Assembly service worker")

	manifest, err := swcache.ParseManifest(assetManifest)
	if err != nil {
		jww.FATAL.Panicf("[SW] %+v", err)
	}

	worker := swcache.NewWorker(manifest)
	if err = worker.RegisterHandlers(); err != nil {
		jww.FATAL.Panicf("[SW] Failed to register handlers: %+v", err)
	}

	jww.INFO.Printf("[SW] Serving cache bucket %s",
		swcache.BucketName(swcache.AppNamespace, manifest.Version))

	// Wait until the browser terminates the worker
	c := make(chan os.Signal)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	os.Exit(0)
}
