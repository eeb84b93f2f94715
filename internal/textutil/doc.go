// Package textutil holds small string helpers shared across packages, such as
// turning tool and stage labels into safe log file name components.
package textutil
