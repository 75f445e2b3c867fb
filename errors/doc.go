/*
Package errors implements the error handling used across the escrow
ledger.

Every error that leaves a handler must wrap one of the registered root
errors. A root error carries an ABCI code, which is how clients tell
apart "not found", "invalid state", "unauthorized" and friends without
parsing messages.

Extensions that need their own categories register them during program
startup with Register(code, description). Codes must be unique; reusing a
code panics.

Wrap and Wrapf attach a stack trace the first time an error is wrapped.
Format an error with %+v to print it.
*/
package errors
