/*
Package domain contains the core types shared by every layer of the bridge.

It defines the connection lifecycle vocabulary, the message envelope exchanged with the
native shell extension, the socket events fired to the host, and the sentinel errors used
across adapters. The package has no I/O and no third-party dependencies.

# Key Entities

  - ConnectionState: Lifecycle of the controller (Disconnected, Connecting, Connected).
  - Message: The decoded request/reply envelope ({"cmd": ..., "value": ...}).
  - SocketEvent: Payload delivered to socket-open and socket-close listeners.
*/
package domain
