// Package network inspects and adjusts the wireless adapter through the
// host's iwconfig and ip utilities.
//
// Inspector answers read-only questions: which adapter is wireless, whether
// it reports a link-layer address, and whether it holds an IPv4 route.
// Radio flips transmit power and power-saving on an adapter.
package network
