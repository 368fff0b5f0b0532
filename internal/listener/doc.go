/*
Package listener manages the loopback server socket of the bridge.

A Manager binds 127.0.0.1 on a port drawn at random from the ephemeral range
[49152, 65535], retrying with a fresh draw when the port is taken, and publishes the winning
port to a ports.Registry so the native extension can find it. Closing the Manager is the
cancellation mechanism for a blocked Accept.
*/
package listener
