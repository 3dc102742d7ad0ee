// Package memory provides a growable byte region for hosting WebAssembly
// linear memory. A Region counts how often its backing store has been
// reallocated; slices obtained before a reallocation keep the old contents
// but no longer alias the live store, so holders compare generations to know
// when to re-derive them.
package memory
