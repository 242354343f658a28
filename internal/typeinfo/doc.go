// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains code relating to Go record types and their processing
in hyena. As much as possible, reflection code is limited to this package. It
resolves the mapping metadata declared on a type into a [Descriptor] and
hydrates query results into instances of that type.

Descriptors are built on every call and are not cached. Resolve reads the
declared metadata only; checking that a descriptor is usable for an operation
is left to the caller.
*/
package typeinfo
