/*
Package ports defines the driven ports (interfaces) of the bridge.

These interfaces decouple the controller from the host application and from the storage
the native shell extension reads, so the same core runs against an in-memory map in tests,
a file or Redis in development, and the Windows registry in production.

# Key Interfaces

  - Registry: Durable key-value store where the bound port is published.
  - Preloader: Native dependency check performed before binding.
  - MessageHandler: Host callback invoked once per accepted connection.
  - Codec: Turns raw frame bytes into messages and back.
  - FolderRefresher: Asks the shell to redraw decorated folders.
*/
package ports
