////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package swcache

import (
	"syscall/js"

	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"gitlab.com/converterhq/converter-wasm/utils"
)

// Worker drives the service worker lifecycle for the static asset cache. It
// must be constructed inside a ServiceWorkerGlobalScope; the page context has
// no install/activate/fetch events.
type Worker struct {
	// self is the ServiceWorkerGlobalScope.
	self safejs.Value

	// caches is the global CacheStorage object.
	caches js.Value

	manifest Manifest
}

// NewWorker creates a Worker serving the given manifest from the current
// worker scope.
func NewWorker(manifest Manifest) *Worker {
	return &Worker{
		self:     safejs.Safe(js.Global()),
		caches:   js.Global().Get("caches"),
		manifest: manifest,
	}
}

// bucket is the versioned cache bucket this worker populates and serves from.
func (w *Worker) bucket() string {
	return BucketName(AppNamespace, w.manifest.Version)
}

// RegisterHandlers installs the install, activate, and fetch listeners on the
// worker scope. The worker does nothing until the browser fires them.
func (w *Worker) RegisterHandlers() error {
	if err := w.addEventListener("install", w.handleInstall); err != nil {
		return err
	}
	if err := w.addEventListener("activate", w.handleActivate); err != nil {
		return err
	}
	return w.addEventListener("fetch", w.handleFetch)
}

// addEventListener registers a synchronous listener on the worker scope.
// Handlers must run synchronously so that waitUntil/respondWith are called
// inside the event dispatch.
func (w *Worker) addEventListener(event string, fn func(event js.Value)) error {
	callback, err := safejs.FuncOf(func(_ safejs.Value, args []safejs.Value) any {
		fn(safejs.Unsafe(args[0]))
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create %s listener", event)
	}

	_, err = w.self.Call("addEventListener", event, callback)
	return errors.Wrapf(err, "failed to add %s listener", event)
}

// handleInstall populates the versioned bucket with the manifest resources.
// Errors are logged and swallowed so a failed pre-warm never blocks the
// worker lifecycle; the phase always ends with skipWaiting so the new worker
// supersedes any prior version immediately.
func (w *Worker) handleInstall(event js.Value) {
	event.Call("waitUntil", utils.CreatePromise(
		func(resolve, _ func(args ...interface{}) js.Value) {
			if err := w.install(); err != nil {
				jww.ERROR.Printf("[SW] Install failed: %+v", err)
			}
			if _, err := utils.Await(js.Global().Call("skipWaiting")); err != nil {
				jww.ERROR.Printf("[SW] skipWaiting failed: %s",
					utils.JsToJson(err[0]))
			}
			resolve()
		}))
}

// install opens the bucket and bulk-adds every manifest resource. The Cache
// API's addAll is all-or-nothing: one unfetchable resource fails the whole
// population for this attempt.
func (w *Worker) install() error {
	cache, err := w.openBucket()
	if err != nil {
		return err
	}

	resources := w.manifest.Resources()
	urls := make([]interface{}, len(resources))
	for i, resource := range resources {
		urls[i] = resource
	}

	if _, errv := utils.Await(cache.Call("addAll", urls)); errv != nil {
		return errors.Errorf("failed to cache %d resources in %s: %s",
			len(urls), w.bucket(), utils.JsToJson(errv[0]))
	}

	jww.INFO.Printf("[SW] Cached %d resources in %s", len(urls), w.bucket())
	return nil
}

// handleActivate evicts every stale bucket generation and claims the open
// pages so interception starts without a reload. Errors are logged and
// swallowed; activation always completes.
func (w *Worker) handleActivate(event js.Value) {
	event.Call("waitUntil", utils.CreatePromise(
		func(resolve, _ func(args ...interface{}) js.Value) {
			if err := w.evictStale(); err != nil {
				jww.ERROR.Printf("[SW] Eviction failed: %+v", err)
			}
			clients := js.Global().Get("clients")
			if _, err := utils.Await(clients.Call("claim")); err != nil {
				jww.ERROR.Printf("[SW] clients.claim failed: %s",
					utils.JsToJson(err[0]))
			}
			resolve()
		}))
}

// evictStale deletes every bucket sharing the application namespace except
// the current generation.
func (w *Worker) evictStale() error {
	keys, errv := utils.Await(w.caches.Call("keys"))
	if errv != nil {
		return errors.Errorf("failed to list cache buckets: %s",
			utils.JsToJson(errv[0]))
	}

	names := make([]string, keys[0].Length())
	for i := range names {
		names[i] = keys[0].Index(i).String()
	}

	for _, name := range StaleBuckets(names, AppNamespace, w.manifest.Version) {
		if _, errv = utils.Await(w.caches.Call("delete", name)); errv != nil {
			return errors.Errorf("failed to delete cache bucket %s: %s",
				name, utils.JsToJson(errv[0]))
		}
		jww.INFO.Printf("[SW] Evicted stale cache bucket %s", name)
	}
	return nil
}

// handleFetch serves an exact-URL cache match when one exists and falls
// through to the live network otherwise. Network responses are not written
// back into the cache; population happens only at install time.
func (w *Worker) handleFetch(event js.Value) {
	request := event.Get("request")
	event.Call("respondWith", utils.CreatePromise(
		func(resolve, reject func(args ...interface{}) js.Value) {
			cached, errv := utils.Await(w.caches.Call("match", request))
			if errv == nil && !cached[0].IsUndefined() {
				resolve(cached[0])
				return
			}

			response, errv := utils.Await(js.Global().Call("fetch", request))
			if errv != nil {
				reject(errv[0])
				return
			}
			resolve(response[0])
		}))
}

// openBucket opens (creating if needed) the current versioned bucket.
func (w *Worker) openBucket() (js.Value, error) {
	cache, errv := utils.Await(w.caches.Call("open", w.bucket()))
	if errv != nil {
		return js.Undefined(), errors.Errorf("failed to open cache bucket %s: %s",
			w.bucket(), utils.JsToJson(errv[0]))
	}
	return cache[0], nil
}
