// Package browserenv defines the environment ports through which the
// fingerprint collectors observe a browser.
//
// The engine never touches browser APIs directly. All access goes through
// the Environment interface so collectors can run against a recorded
// snapshot in production (captured by the browser-side half of the
// product) and against hand-built environments in tests. Capability
// checks are resolved once per run into a Capabilities table and consumed
// everywhere else as plain data.
package browserenv
