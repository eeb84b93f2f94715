// Package fileutil holds filesystem helpers shared by the conversion and
// queue packages.
package fileutil
