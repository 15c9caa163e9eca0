// Package scope provides locally owned state with change subscriptions and
// derived views over it.
//
// A Provider owns one value. Derive computes a view from any number of
// sources and notifies only when the computed value changes. Handles are
// plain values returned by constructors, so a consumer that needs another
// provider takes its handle as a constructor argument. For code that must
// look a handle up dynamically, With and From carry it on a
// context.Context; From fails with ErrOutsideProvider when nothing was
// installed.
package scope
