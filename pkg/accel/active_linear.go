//go:build linear && !wavefront

package accel

const activeBackend = NameLinear
