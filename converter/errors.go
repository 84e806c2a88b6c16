////////////////////////////////////////////////////////////////////////////////
// Copyright © 2023 converterhq                                               //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package converter

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned by store lookups that match no record. It is
	// recoverable: the manager reacts with a reverse-key lookup or a network
	// fetch, never by surfacing it to the caller directly.
	ErrNotFound = errors.New("no matching record")

	// ErrDataUnavailable is returned when neither the cache nor the network
	// can satisfy a request. It is the only failure the manager reports
	// upward for a conversion.
	ErrDataUnavailable = errors.New("no rate available from cache or network")

	// ErrStorageUnsupported is returned when the host environment has no
	// structured storage. The manager then runs in degraded, network-only
	// mode instead of failing the application.
	ErrStorageUnsupported = errors.New("structured storage unsupported")
)
