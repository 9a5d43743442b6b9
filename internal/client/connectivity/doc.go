// Package connectivity tracks whether the network is usable.
//
// A Monitor runs one probe loop per process. The loop probes on start, on a
// fixed interval and whenever the platform reports a network change (netlink
// on Linux). Observers get the current State followed by every transition.
package connectivity
