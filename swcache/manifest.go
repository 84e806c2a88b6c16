////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package swcache implements the service worker's static asset cache: bucket
// naming and eviction across deployments, install-time cache population from
// an asset manifest, and cache-first fetch interception.
//
// The pure parts (manifest parsing, bucket naming, eviction selection) are
// kept free of syscall/js so they compile and test on any platform; the
// worker glue lives behind the js && wasm build tag.
package swcache

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// AppNamespace prefixes every cache bucket created by this application. The
// eviction pass only ever touches buckets carrying this prefix, so caches
// belonging to other applications on the same origin are left alone.
const AppNamespace = "the-currency-converter-app"

// Manifest lists everything the service worker pre-warms at install time: the
// static assets making up the application shell plus the API URLs cached for
// offline use. It is generated by the manifest CLI and embedded into the
// worker binary.
type Manifest struct {
	// Version is the cache generation. Bumping it is the only supported
	// mechanism for forcing full cache invalidation.
	Version string `json:"version"`

	// Assets is the application shell: HTML, stylesheets, scripts, icons.
	Assets []string `json:"assets"`

	// API is the set of API URLs to pre-warm.
	API []string `json:"api"`
}

// ParseManifest decodes and validates an embedded manifest.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, errors.Wrap(err, "failed to unmarshal asset manifest")
	}
	if m.Version == "" {
		return Manifest{}, errors.New("asset manifest has no version")
	}
	if len(m.Assets) == 0 {
		return Manifest{}, errors.New("asset manifest lists no assets")
	}
	return m, nil
}

// Resources returns every URL the install phase caches, assets first.
func (m Manifest) Resources() []string {
	resources := make([]string, 0, len(m.Assets)+len(m.API))
	resources = append(resources, m.Assets...)
	resources = append(resources, m.API...)
	return resources
}

// BucketName builds the versioned cache bucket name
// "{appNamespace}-{version}".
func BucketName(namespace, version string) string {
	return namespace + "-" + version
}

// StaleBuckets selects the bucket names to evict: every bucket sharing the
// namespace prefix whose name is not the current bucket. Exactly one
// generation is retained; differently-namespaced buckets are never selected.
func StaleBuckets(names []string, namespace, version string) []string {
	current := BucketName(namespace, version)
	var stale []string
	for _, name := range names {
		if strings.HasPrefix(name, namespace+"-") && name != current {
			stale = append(stale, name)
		}
	}
	return stale
}
