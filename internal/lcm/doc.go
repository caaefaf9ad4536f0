// Package lcm provides the message transport publishers write to and the named
// bus registry used to find it.
//
// [Bus] is an in-process, thread-safe "memq://" transport: Publish queues a
// message and HandleSubscriptions delivers everything queued so far to the
// matching subscribers. It never blocks.
//
// [ApplyBusConfig] creates one bus per configured name, adds a pump node for each
// to a diagram builder, and returns the resulting [Buses] registry.
package lcm
