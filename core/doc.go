// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package core holds the identities, time and message types shared by the
bus, the network model (snn) and the backends.

Messages are always passed by pointer; a message published on the bus must
not be modified afterwards by its sender.
*/
package core
