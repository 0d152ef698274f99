// Package capture runs a scenario against a browser page: it handles
// login, executes steps in order, and writes numbered frames into a
// staging directory plus named stills into the output directory.
//
// The browser is reached only through Page, so the runner can be driven
// by a fake in tests.
package capture
