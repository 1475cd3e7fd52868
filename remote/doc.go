// Package remote sends transport commands back to the device streaming to
// the receiver.
//
// The sender announces an Active-Remote token and a DACP-ID on the control
// channel. Its remote-control service is published over DNS-SD as a
// _dacp._tcp instance whose name contains the DACP-ID. [Client] locates
// that instance through a [Resolver] and issues
//
//	GET /ctrl-int/1/<command> HTTP/1.1
//	Active-Remote: <token>
//
// A token change drops the resolved address and starts a new search. A
// command issued before a search has finished searches again first.
package remote
