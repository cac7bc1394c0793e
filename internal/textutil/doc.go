// Package textutil provides small string helpers shared by the monitor, the
// recordings library and the front ends: username normalization and filename
// sanitization.
package textutil
