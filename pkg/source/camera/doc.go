// Package camera captures raw frames from a V4L2 device. Only formats the
// device can deliver natively are accepted; no conversion happens on the host.
package camera
