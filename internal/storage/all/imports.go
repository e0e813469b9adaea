// Package all wires the built-in storage backends into the storage factory.
//
// It exists purely for side effects: importing it (typically as a blank
// import from the wiring layer) runs each backend's init(), which registers
// its factory with bigclean/internal/storage. After that the following
// storage kinds are available at runtime:
//
//   - "sqlite"   (bigclean/internal/storage/sqlite)
//   - "postgres" (bigclean/internal/storage/postgres)
//
// A binary that only needs one backend can blank-import that backend's
// package directly instead of this one.
package all

import (
	_ "bigclean/internal/storage/postgres"
	_ "bigclean/internal/storage/sqlite"
)
