// Package internal holds non-exported helpers shared by the root engine:
// CSPRNG credential material and renewal-token id generation.
package internal
