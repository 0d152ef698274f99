// Package inspect analyses rendered page HTML. It lists the elements a
// capture scenario can target by data-testid, which is how scenarios are
// authored and how missing-element failures are diagnosed.
package inspect
