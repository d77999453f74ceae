// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package engine

// version is the engine's version string, matching the reference
// implementation's SAURON_VERSION_STRING.
const version = "1.0.0"

// Version returns the engine library's version string.
func Version() string { return version }
