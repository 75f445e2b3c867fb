/*
Package x contains the standard extensions of the escrow chain.

Extensions implement common functionality (Handler, Decorator,
etc.) and are combined together by the application to construct
the transaction processing stack.

Note that protobuf types in exported code will be prefixed by
the package, so follow standard go naming conventions and avoid
stutter. Use eg. `escrow.CreateMsg` in place of `escrow.CreateEscrowMsg`.
*/
package x
