////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package swcache

import (
	"reflect"
	"testing"
)

// Tests that a valid manifest parses and its resources list assets before API
// URLs.
func TestParseManifest(t *testing.T) {
	data := []byte(`{
		"version": "v3",
		"assets": ["/", "/index.html", "/js/app.js"],
		"api": ["https://example.test/api/v5/countries"]
	}`)

	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest failed: %+v", err)
	}

	if m.Version != "v3" {
		t.Errorf("Unexpected version.\nexpected: %s\nreceived: %s",
			"v3", m.Version)
	}

	expected := []string{"/", "/index.html", "/js/app.js",
		"https://example.test/api/v5/countries"}
	if received := m.Resources(); !reflect.DeepEqual(received, expected) {
		t.Errorf("Unexpected resources.\nexpected: %v\nreceived: %v",
			expected, received)
	}
}

// Tests that invalid manifests are rejected.
func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"version": "v3", "assets": [`},
		{"no version", `{"assets": ["/"]}`},
		{"no assets", `{"version": "v3", "assets": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tt.data)); err == nil {
				t.Errorf("Expected an error for manifest %s", tt.data)
			}
		})
	}
}

// Tests the bucket name format.
func TestBucketName(t *testing.T) {
	expected := "the-currency-converter-app-v2"
	received := BucketName(AppNamespace, "v2")
	if received != expected {
		t.Errorf("Unexpected bucket name.\nexpected: %s\nreceived: %s",
			expected, received)
	}
}

// Tests that eviction selects exactly the same-namespace buckets of other
// generations: the current bucket survives and foreign namespaces are never
// touched.
func TestStaleBuckets(t *testing.T) {
	names := []string{
		BucketName(AppNamespace, "v1"),
		BucketName(AppNamespace, "v2"),
		BucketName(AppNamespace, "v3"),
		"some-other-app-v1",
		"unrelated",
	}

	expected := []string{
		BucketName(AppNamespace, "v1"),
		BucketName(AppNamespace, "v3"),
	}
	received := StaleBuckets(names, AppNamespace, "v2")
	if !reflect.DeepEqual(received, expected) {
		t.Errorf("Unexpected stale buckets.\nexpected: %v\nreceived: %v",
			expected, received)
	}
}

// Tests that eviction selects nothing when only the current generation and
// foreign buckets exist.
func TestStaleBuckets_NoneStale(t *testing.T) {
	names := []string{
		BucketName(AppNamespace, "v2"),
		"some-other-app-v1",
	}

	if received := StaleBuckets(names, AppNamespace, "v2"); received != nil {
		t.Errorf("Expected no stale buckets, received: %v", received)
	}
}
