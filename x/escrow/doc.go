/*
Package escrow implements a relayer mediated escrow.

An escrow is created for a recipient and an amount. Anyone can fund it by
paying at least that amount, which is then held in a purse opened for
this escrow alone. A single relayer, named in the on-chain configuration,
decides the outcome: settlement pays the held funds to the recipient,
cancellation returns them to the relayer.

	Initiated --fund--> Funded --settle--> Settled
	    |                  |
	    +-----cancel-------+-----cancel--> Cancelled

Settled and Cancelled escrows are kept in the store and can be queried.
*/
package escrow
