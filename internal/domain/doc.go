// Package domain holds the core model types and the interfaces that
// connect the application layers. It has no dependencies on transport,
// storage, or broadcast implementations.
package domain
