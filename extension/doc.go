// Package extension attaches independently developed modules to a host.
//
// A Factory receives the host and returns the module to mount. Factories
// declared before the host exists are collected in a Registry and mounted in
// registration order when the host is built; factories supplied later are
// mounted on the spot with Mount. Mounted modules live in a Set keyed by
// name, iterated in mount order.
//
// Names must be 1 to 255 characters long, start with an ASCII letter or
// digit, and continue with letters, digits, '-' or '_'.
//
// A factory that returns an error or panics produces a *MountError. The
// caller decides what to do with it; the root client treats a failure during
// construction as fatal and disposes everything mounted so far.
//
// Set.Close disposes modules in reverse mount order. A module takes part if
// it implements Disposer or io.Closer.
package extension
