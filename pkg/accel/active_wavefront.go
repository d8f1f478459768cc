//go:build wavefront

package accel

const activeBackend = NameWavefront
