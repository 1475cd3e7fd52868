// Package advertise publishes the receiver on the local network.
//
// Senders discover AirPlay audio receivers through a _raop._tcp DNS-SD
// record named "<HEXMAC>@<Name>" on the RTSP port. The TXT attributes tell
// the sender which encryption (et), transport (tp), protocol version (vn),
// codecs (cn) and metadata types (md) the receiver supports.
package advertise
