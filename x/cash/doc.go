/*
Package cash defines a simple implementation of holding and moving the
native currency between addresses.

There is no logic in the currency, except that the balance of any wallet
may not go below zero. Thus, this implementation is referred to as cash.
Simple and safe.

Purses are wallets owned by no key. Their address is derived from a
sequence, so only the code that opened a purse knows where it is and can
move funds out of it.
*/
package cash
