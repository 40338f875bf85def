// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing turns and conversations. They are not intended
// for production usage.
package testutil
