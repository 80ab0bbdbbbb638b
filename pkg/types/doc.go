// Package types defines the entity types, store interfaces, configuration, and
// standard errors for padkit. Backends live in internal/sqlite; the
// coordination layer that presentation code talks to lives in pkg/repository.
package types
