//go:build !linear && !wavefront

package accel

// activeBackend is the software hierarchy unless another backend is selected with a build tag.
const activeBackend = NameBVH
